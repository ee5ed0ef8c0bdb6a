package tlsroots

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	if NewPool().Pool() == nil {
		t.Fatal("NewPool().Pool() = nil")
	}
	if NewEmptyPool().Pool() == nil {
		t.Fatal("NewEmptyPool().Pool() = nil")
	}
}

func TestAddCertPEM(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"single", generateTestCertPEM(t), nil},
		{"multiple", append(generateTestCertPEM(t), generateTestCertPEM(t)...), nil},
		{"empty", []byte{}, ErrNoCertsFound},
		{"key only", pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: []byte{1}}), ErrNoCertsFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewEmptyPool().AddCertPEM(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddCertPEM() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddCertPEM_InvalidCert(t *testing.T) {
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("garbage")})
	if err := NewEmptyPool().AddCertPEM(data); err == nil {
		t.Error("AddCertPEM() error = nil, want parse error")
	}
}

func TestAddCertFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, generateTestCertPEM(t), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := NewEmptyPool().AddCertFile(path); err != nil {
		t.Errorf("AddCertFile() error = %v", err)
	}
	if err := NewEmptyPool().AddCertFile(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("AddCertFile() missing file error = nil")
	}
}

func TestClientConfig(t *testing.T) {
	dir := t.TempDir()
	caFile := filepath.Join(dir, "ca.pem")
	if err := os.WriteFile(caFile, generateTestCertPEM(t), 0o644); err != nil {
		t.Fatal(err)
	}
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	generateTestCertAndKey(t, certFile, keyFile)

	t.Run("ca and server name", func(t *testing.T) {
		cfg, w, err := ClientConfig(ClientOptions{CAFile: caFile, ServerName: "engine.lab"})
		if err != nil {
			t.Fatalf("ClientConfig() error = %v", err)
		}
		if w != nil {
			t.Error("watcher != nil without client certificate")
		}
		if cfg.ServerName != "engine.lab" || cfg.RootCAs == nil || cfg.InsecureSkipVerify {
			t.Errorf("config = %+v", cfg)
		}
	})

	t.Run("mutual tls", func(t *testing.T) {
		cfg, w, err := ClientConfig(ClientOptions{CertFile: certFile, KeyFile: keyFile})
		if err != nil {
			t.Fatalf("ClientConfig() error = %v", err)
		}
		defer w.Stop()
		cert, err := cfg.GetClientCertificate(nil)
		if err != nil || cert == nil {
			t.Errorf("GetClientCertificate() = %v, %v", cert, err)
		}
	})

	t.Run("half key pair", func(t *testing.T) {
		if _, _, err := ClientConfig(ClientOptions{CertFile: certFile}); !errors.Is(err, ErrIncompleteKeyPair) {
			t.Errorf("ClientConfig() error = %v, want ErrIncompleteKeyPair", err)
		}
	})

	t.Run("bad ca", func(t *testing.T) {
		if _, _, err := ClientConfig(ClientOptions{CAFile: keyFile}); err == nil {
			t.Error("ClientConfig() error = nil for key file as CA")
		}
	})
}

func TestClientOptions_Enabled(t *testing.T) {
	if (ClientOptions{}).Enabled() {
		t.Error("zero options Enabled() = true")
	}
	if !(ClientOptions{Insecure: true}).Enabled() {
		t.Error("Insecure Enabled() = false")
	}
}

func generateTestCertPEM(t *testing.T) []byte {
	t.Helper()

	cert := generateTestCert(t)
	return pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: cert.Raw,
	})
}

// generateTestCert generates a self-signed certificate.
func generateTestCert(t *testing.T) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Test Org"},
			CommonName:   "test.local",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}

	return cert
}

// generateTestCertAndKey generates a self-signed certificate and key pair.
func generateTestCertAndKey(t *testing.T, certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Test Org"},
			CommonName:   "test.local",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}

	// Write cert
	certPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certDER,
	})
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatalf("WriteFile(cert) error = %v", err)
	}

	// Write key
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey() error = %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: keyDER,
	})
	if err := os.WriteFile(keyFile, keyPEM, 0600); err != nil {
		t.Fatalf("WriteFile(key) error = %v", err)
	}
}
