package kalshi

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// signer produces Kalshi's RSA-PSS-SHA256 request signatures over the
// timestamp + method + path message string.
type signer struct {
	apiKeyID   string
	privateKey *rsa.PrivateKey
}

func newSigner(apiKeyID string, pemBytes []byte) (*signer, error) {
	if apiKeyID == "" {
		return nil, fmt.Errorf("missing API key id")
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Older keys are PKCS#1.
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return nil, fmt.Errorf("parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		return &signer{apiKeyID: apiKeyID, privateKey: pkcs1Key}, nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("expected RSA private key, got %T", key)
	}
	return &signer{apiKeyID: apiKeyID, privateKey: rsaKey}, nil
}

// sign adds the KALSHI-ACCESS-* headers to the request.
func (s *signer) sign(req *http.Request, method, path string) error {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message := ts + method + path

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, s.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("rsa sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", s.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	return nil
}
