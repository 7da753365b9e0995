// Package testlib provides common test utilities, adapted from the
// teacher's internal/testlib for smtpclient's own tests: temporary
// directories, a free TCP port for loopback listeners, and a throwaway
// TLS certificate for exercising STARTTLS end to end.
package testlib

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"os"
	"strings"
	"testing"
	"time"
)

// MustTempDir creates a temporary directory, or dies trying.
func MustTempDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "smtpclient_test_")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { RemoveIfOk(t, dir) })
	return dir
}

// RemoveIfOk removes the given directory, but only if the test has not
// failed. Failed test directories are kept around for debugging.
func RemoveIfOk(t *testing.T, dir string) {
	if !strings.Contains(dir, "smtpclient_test_") {
		panic("invalid/dangerous directory")
	}
	if !t.Failed() {
		os.RemoveAll(dir)
	}
}

// GetFreePort returns a free TCP loopback address. Hacky and not
// race-free, but good enough for Dial tests against a real net.Listener.
func GetFreePort() string {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		panic(err)
	}
	defer l.Close()
	return l.Addr().String()
}

// WaitFor polls f until it returns true, or d elapses.
func WaitFor(f func() bool, d time.Duration) bool {
	start := time.Now()
	for time.Since(start) < d {
		if f() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

// GenerateCert generates a new, INSECURE self-signed certificate for
// "localhost"/127.0.0.1, and returns a server-side tls.Config carrying it
// plus a client-side tls.Config that trusts it. Only useful for tests.
func GenerateCert(t *testing.T) (server *tls.Config, client *tls.Config) {
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1234),
		Subject: pkix.Name{
			Organization: []string{"smtpclient_test"},
		},

		DNSNames:    []string{"localhost"},
		IPAddresses: []net.IP{net.ParseIP("127.0.0.1")},

		NotBefore: time.Now(),
		NotAfter:  time.Now().Add(30 * time.Minute),

		KeyUsage: x509.KeyUsageKeyEncipherment |
			x509.KeyUsageDigitalSignature |
			x509.KeyUsageCertSign,

		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	derBytes, err := x509.CreateCertificate(
		rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatal(err)
	}

	srvCert, err := x509.ParseCertificate(derBytes)
	if err != nil {
		t.Fatal(err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{derBytes},
		PrivateKey:  priv,
	}

	server = &tls.Config{
		Certificates: []tls.Certificate{cert},
	}

	rootCAs := x509.NewCertPool()
	rootCAs.AddCert(srvCert)
	client = &tls.Config{
		ServerName: "localhost",
		RootCAs:    rootCAs,
	}

	return server, client
}
