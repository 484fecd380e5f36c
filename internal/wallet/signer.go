package wallet

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/smallstep/pkcs7"
	"golang.org/x/image/draw"

	"github.com/coverly/warranty-desk/internal/config"
)

// Signer turns a composed pass into a signed artifact. The crypto and
// packaging details stay behind this boundary.
type Signer interface {
	Sign(ctx context.Context, pass Pass) ([]byte, error)
}

// ErrMissingCredential reports that the signer certificate or key is
// not configured. The check runs before any bundle work.
var ErrMissingCredential = errors.New("wallet: signer certificate and key are required")

// Icon sizes required by the pass format, in pixels.
const (
	iconSize       = 29
	iconRetinaSize = 58
)

// BundleSigner signs passes with PEM credentials from configuration
// and packages them as pkpass zip bundles: pass.json, scaled icons, a
// SHA-1 manifest, and a detached CMS signature over the manifest.
type BundleSigner struct {
	cfg config.Pass
}

// NewBundleSigner creates a signer over the given credential paths.
// Credential presence is validated per Sign call, not here, so a
// server can start without signing configured.
func NewBundleSigner(cfg config.Pass) *BundleSigner {
	return &BundleSigner{cfg: cfg}
}

// Sign validates credentials, renders pass.json, scales the icon,
// builds the manifest, signs it, and zips the bundle.
func (s *BundleSigner) Sign(ctx context.Context, pass Pass) ([]byte, error) {
	if s.cfg.Certificate == "" || s.cfg.Key == "" {
		return nil, ErrMissingCredential
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cert, key, err := s.loadCredentials()
	if err != nil {
		return nil, err
	}
	wwdr, err := s.loadWWDR()
	if err != nil {
		return nil, err
	}

	passJSON, err := json.MarshalIndent(pass, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("wallet: encode pass: %w", err)
	}

	icon, iconRetina, err := s.renderIcons()
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{
		"pass.json":   passJSON,
		"icon.png":    icon,
		"icon@2x.png": iconRetina,
	}

	manifest, err := buildManifest(files)
	if err != nil {
		return nil, err
	}
	files["manifest.json"] = manifest

	signature, err := signManifest(manifest, cert, key, wwdr)
	if err != nil {
		return nil, err
	}
	files["signature"] = signature

	return zipBundle(files)
}

func (s *BundleSigner) loadCredentials() (*x509.Certificate, crypto.PrivateKey, error) {
	cert, err := readPEMCertificate(s.cfg.Certificate)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet: signer certificate: %w", err)
	}

	keyPEM, err := os.ReadFile(s.cfg.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet: signer key: %w", err)
	}
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, nil, errors.New("wallet: signer key: no PEM block found")
	}

	der := block.Bytes
	if x509.IsEncryptedPEMBlock(block) {
		der, err = x509.DecryptPEMBlock(block, []byte(s.cfg.Passphrase))
		if err != nil {
			return nil, nil, fmt.Errorf("wallet: signer key: decrypt: %w", err)
		}
	}

	key, err := parsePrivateKey(der)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet: signer key: %w", err)
	}
	return cert, key, nil
}

func (s *BundleSigner) loadWWDR() (*x509.Certificate, error) {
	if s.cfg.WWDRCertificate == "" {
		return nil, nil
	}
	cert, err := readPEMCertificate(s.cfg.WWDRCertificate)
	if err != nil {
		return nil, fmt.Errorf("wallet: authority certificate: %w", err)
	}
	return cert, nil
}

func readPEMCertificate(path string) (*x509.Certificate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	return x509.ParseCertificate(block.Bytes)
}

func parsePrivateKey(der []byte) (crypto.PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, errors.New("unsupported private key format")
}

// renderIcons loads the configured source icon and scales it to both
// required sizes.
func (s *BundleSigner) renderIcons() ([]byte, []byte, error) {
	f, err := os.Open(s.cfg.Icon)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet: icon: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet: icon: %w", err)
	}

	icon, err := scalePNG(src, iconSize)
	if err != nil {
		return nil, nil, err
	}
	retina, err := scalePNG(src, iconRetinaSize)
	if err != nil {
		return nil, nil, err
	}
	return icon, retina, nil
}

func scalePNG(src image.Image, size int) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("wallet: encode icon: %w", err)
	}
	return buf.Bytes(), nil
}

// buildManifest maps each bundle file to its SHA-1 digest, as the
// pass format requires.
func buildManifest(files map[string][]byte) ([]byte, error) {
	digests := make(map[string]string, len(files))
	for name, data := range files {
		sum := sha1.Sum(data)
		digests[name] = hex.EncodeToString(sum[:])
	}
	manifest, err := json.MarshalIndent(digests, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("wallet: encode manifest: %w", err)
	}
	return manifest, nil
}

// signManifest produces a detached CMS signature over the manifest,
// embedding the intermediate certificate when configured.
func signManifest(manifest []byte, cert *x509.Certificate, key crypto.PrivateKey, wwdr *x509.Certificate) ([]byte, error) {
	signed, err := pkcs7.NewSignedData(manifest)
	if err != nil {
		return nil, fmt.Errorf("wallet: sign manifest: %w", err)
	}
	signed.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	if wwdr != nil {
		signed.AddCertificate(wwdr)
	}
	if err := signed.AddSigner(cert, key, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("wallet: sign manifest: %w", err)
	}
	signed.Detach()

	signature, err := signed.Finish()
	if err != nil {
		return nil, fmt.Errorf("wallet: sign manifest: %w", err)
	}
	return signature, nil
}

func zipBundle(files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// Deterministic member order keeps bundles diffable.
	for _, name := range []string{"pass.json", "manifest.json", "signature", "icon.png", "icon@2x.png"} {
		data, ok := files[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("wallet: bundle: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("wallet: bundle: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("wallet: bundle: %w", err)
	}
	return buf.Bytes(), nil
}
