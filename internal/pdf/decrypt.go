package pdf

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Credentials holds the passwords for an encrypted PDF.
type Credentials struct {
	UserPassword  string `json:"user_password,omitempty"`
	OwnerPassword string `json:"owner_password,omitempty"`
}

func (c *Credentials) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if c != nil {
		conf.UserPW = c.UserPassword
		conf.OwnerPW = c.OwnerPassword
	}
	return conf
}

// IsPasswordError reports whether err looks like an encryption failure.
func IsPasswordError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range []string{"password", "encrypted", "decrypt", "authentication"} {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// Decrypt writes a decrypted copy of path to a temporary file when path is
// encrypted. The returned cleanup removes that copy; for plain files it
// returns path unchanged and a no-op cleanup.
func Decrypt(path string, creds *Credentials) (string, func(), error) {
	noop := func() {}
	_, err := api.PageCountFile(path)
	if err == nil {
		return path, noop, nil
	}
	if !IsPasswordError(err) {
		return "", noop, fmt.Errorf("read %s: %w", path, err)
	}
	if creds == nil {
		return "", noop, errors.New("document is encrypted and no password was given")
	}

	tmp, err := os.CreateTemp("", "decrypted-*.pdf")
	if err != nil {
		return "", noop, fmt.Errorf("create temporary file: %w", err)
	}
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if err := api.DecryptFile(path, tmp.Name(), creds.configuration()); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("decrypt %s: %w", path, err)
	}
	return tmp.Name(), cleanup, nil
}
