package publisher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/A1i98/obsidian-digital-garden/internal/config"
)

// authMethod creates go-git authentication from the garden auth config.
// A nil config or type "none" means no authentication (public repository).
func authMethod(auth *config.AuthConfig) (transport.AuthMethod, error) {
	if auth == nil {
		return nil, nil
	}

	switch auth.Type {
	case "none", "":
		return nil, nil

	case "ssh":
		keyPath := auth.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		}
		publicKeys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
		}
		return publicKeys, nil

	case "token":
		if auth.Token == "" {
			return nil, fmt.Errorf("token authentication requires a token")
		}
		// Git hosting services accept "token" as the username for token auth.
		return &http.BasicAuth{
			Username: "token",
			Password: auth.Token,
		}, nil

	case "basic":
		if auth.Username == "" || auth.Password == "" {
			return nil, fmt.Errorf("basic authentication requires username and password")
		}
		return &http.BasicAuth{
			Username: auth.Username,
			Password: auth.Password,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported authentication type: %s", auth.Type)
	}
}
