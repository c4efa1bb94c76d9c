package infra

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
	"github.com/yeka/zip"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// EncryptionProberImpl implements domain.EncryptionProber by reading archive
// headers of the formats it understands (zip, rar, 7z).
type EncryptionProberImpl struct {
	logger *zap.Logger
}

// NewEncryptionProber creates a header prober.
func NewEncryptionProber(logger *zap.Logger) *EncryptionProberImpl {
	return &EncryptionProberImpl{logger: logger}
}

// Probe reports whether path holds encrypted entries. known is false when
// the format is not inspected or the headers could not be read.
func (p *EncryptionProberImpl) Probe(path string) (encrypted bool, known bool) {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		encrypted, err = probeZip(path)
	case ".rar":
		encrypted, err = probeRar(path)
	case ".7z":
		encrypted, err = probeSevenZip(path)
	default:
		return false, false
	}
	if err != nil {
		p.logger.Debug("encryption probe failed", zap.String("path", path), zap.Error(err))
		return false, false
	}
	return encrypted, true
}

func probeZip(path string) (bool, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.IsEncrypted() {
			return true, nil
		}
	}
	return false, nil
}

func probeRar(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f)
	if err != nil {
		if isPasswordError(err) {
			return true, nil
		}
		return false, err
	}

	for {
		h, err := r.Next()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			// Encrypted headers fail before the first entry.
			if isPasswordError(err) {
				return true, nil
			}
			return false, err
		}
		if h.Encrypted || h.HeaderEncrypted {
			return true, nil
		}
	}
}

func probeSevenZip(path string) (bool, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		if isPasswordError(err) {
			return true, nil
		}
		return false, err
	}
	defer r.Close()

	// The first entry is enough; 7z encrypts whole folders.
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			if isPasswordError(err) {
				return true, nil
			}
			return false, err
		}
		rc.Close()
		break
	}
	return false, nil
}

// isPasswordError matches the decoder libraries' password errors, which are
// not exported as sentinels.
func isPasswordError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypted")
}

// Ensure EncryptionProberImpl implements domain.EncryptionProber.
var _ domain.EncryptionProber = (*EncryptionProberImpl)(nil)
