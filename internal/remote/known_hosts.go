package remote

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"comfyui-data-manager/internal/logging"
)

// hostKeyCallback implements trust on first use against the known_hosts
// file at path: a recorded key must match, an unknown host is appended.
// An empty path disables recording but still accepts the key.
func hostKeyCallback(path string) ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		sum := sha256.Sum256(key.Marshal())
		fingerprint := base64.RawStdEncoding.EncodeToString(sum[:])

		if path == "" {
			logging.Warn("no known_hosts file configured, accepting host key",
				logging.String("host", hostname), logging.String("fingerprint", fingerprint))
			return nil
		}

		known, err := checkKnownHost(path, hostname, remote, key)
		if err != nil {
			return fmt.Errorf("host key for %s (SHA256:%s) rejected by %s: %w", hostname, fingerprint, path, err)
		}
		if known {
			return nil
		}

		logging.Info("recording new host key",
			logging.String("host", hostname), logging.String("fingerprint", fingerprint))
		if err := appendKnownHost(path, hostname, key); err != nil {
			logging.Warn("failed to write known_hosts", logging.String("path", path), logging.Err(err))
		}
		return nil
	}
}

// checkKnownHost reports whether the file at path accepts key for
// hostname. It returns false with a nil error when the host has no entry;
// a changed or revoked key is an error.
func checkKnownHost(path, hostname string, remote net.Addr, key ssh.PublicKey) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	check, err := knownhosts.New(path)
	if err != nil {
		return false, err
	}

	err = check(hostname, remote, key)
	var keyErr *knownhosts.KeyError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &keyErr) && len(keyErr.Want) == 0:
		return false, nil
	}
	return false, err
}

func appendKnownHost(path, hostname string, key ssh.PublicKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key) + "\n")
	return err
}
