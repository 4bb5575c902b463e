package gpg

import (
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// SignatureExt is appended to a signed file's path to form its signature path
const SignatureExt = ".asc"

// Signer writes armored detached signatures with a single private key
type Signer struct {
	entity *openpgp.Entity
}

// NewSignerFromFile loads the first private key in keyPath. passphrase
// unlocks an encrypted key and is ignored otherwise.
func NewSignerFromFile(keyPath string, passphrase []byte) (*Signer, error) {
	entities, err := readKeyRing(keyPath)
	if err != nil {
		return nil, err
	}

	for _, entity := range entities {
		if entity.PrivateKey == nil {
			continue
		}
		if err := decrypt(entity, passphrase); err != nil {
			return nil, err
		}
		return &Signer{entity: entity}, nil
	}

	return nil, fmt.Errorf("no private key found in %s", keyPath)
}

// NewSigner signs with an already unlocked entity
func NewSigner(entity *openpgp.Entity) (*Signer, error) {
	if entity == nil || entity.PrivateKey == nil {
		return nil, fmt.Errorf("signing requires a private key")
	}
	if entity.PrivateKey.Encrypted {
		return nil, fmt.Errorf("private key is encrypted")
	}
	return &Signer{entity: entity}, nil
}

// KeyID returns the signing key's fingerprint in hex
func (s *Signer) KeyID() string {
	return fmt.Sprintf("%X", s.entity.PrimaryKey.Fingerprint)
}

// SignFile writes <filePath>.asc and returns its path
func (s *Signer) SignFile(filePath string) (string, error) {
	//nolint:gosec // G304: filePath is the archive being released
	data, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file to sign: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer data.Close()

	sigPath := filePath + SignatureExt
	//nolint:gosec // G304: sigPath is derived from the archive path
	out, err := os.Create(sigPath)
	if err != nil {
		return "", fmt.Errorf("failed to create signature file: %w", err)
	}

	if err := openpgp.ArmoredDetachSign(out, s.entity, data, nil); err != nil {
		_ = out.Close()
		_ = os.Remove(sigPath)
		return "", fmt.Errorf("failed to sign %s: %w", filePath, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(sigPath)
		return "", fmt.Errorf("failed to write signature: %w", err)
	}

	return sigPath, nil
}

func decrypt(entity *openpgp.Entity, passphrase []byte) error {
	if entity.PrivateKey.Encrypted {
		if len(passphrase) == 0 {
			return fmt.Errorf("private key is encrypted and no passphrase was given")
		}
		if err := entity.PrivateKey.Decrypt(passphrase); err != nil {
			return fmt.Errorf("failed to unlock private key: %w", err)
		}
	}
	for _, sub := range entity.Subkeys {
		if sub.PrivateKey != nil && sub.PrivateKey.Encrypted {
			if err := sub.PrivateKey.Decrypt(passphrase); err != nil {
				return fmt.Errorf("failed to unlock subkey: %w", err)
			}
		}
	}
	return nil
}
