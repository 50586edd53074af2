package oauthflow

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"time"
)

// CallbackResult carries what the vendor redirect delivered.
type CallbackResult struct {
	Code  string
	State string
	Err   error
}

// CallbackServer is a short-lived local HTTPS listener that serves exactly
// the redirect URI path, captures the authorization code, and shuts down.
// Vendors such as Slack require an https redirect URI even for localhost,
// so the listener generates a throwaway self-signed certificate.
type CallbackServer struct {
	redirectURI *url.URL
	server      *http.Server
	results     chan CallbackResult
}

// NewCallbackServer builds a listener for the given redirect URI.
func NewCallbackServer(redirectURI string) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("redirect URI must be http(s), got %q", u.Scheme)
	}
	return &CallbackServer{
		redirectURI: u,
		results:     make(chan CallbackResult, 1),
	}, nil
}

// Start begins listening. Call WaitForCode to block for the redirect.
func (s *CallbackServer) Start() error {
	mux := http.NewServeMux()
	path := s.redirectURI.Path
	if path == "" {
		path = "/"
	}
	mux.HandleFunc(path, s.handleCallback)

	host := s.redirectURI.Host
	if s.redirectURI.Port() == "" {
		if s.redirectURI.Scheme == "https" {
			host = net.JoinHostPort(s.redirectURI.Hostname(), "443")
		} else {
			host = net.JoinHostPort(s.redirectURI.Hostname(), "80")
		}
	}

	s.server = &http.Server{
		Addr:         host,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", host)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", host, err)
	}

	if s.redirectURI.Scheme == "https" {
		cert, err := selfSignedCert(s.redirectURI.Hostname())
		if err != nil {
			ln.Close()
			return fmt.Errorf("generate callback certificate: %w", err)
		}
		s.server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
		go func() {
			if err := s.server.ServeTLS(ln, "", ""); err != nil && err != http.ErrServerClosed {
				s.deliver(CallbackResult{Err: err})
			}
		}()
	} else {
		go func() {
			if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
				s.deliver(CallbackResult{Err: err})
			}
		}()
	}

	return nil
}

// WaitForCode blocks until the redirect arrives or ctx expires, then shuts
// the listener down.
func (s *CallbackServer) WaitForCode(ctx context.Context) (CallbackResult, error) {
	defer s.Shutdown()
	select {
	case <-ctx.Done():
		return CallbackResult{}, fmt.Errorf("timed out waiting for OAuth callback: %w", ctx.Err())
	case res := <-s.results:
		if res.Err != nil {
			return res, res.Err
		}
		return res, nil
	}
}

// Shutdown stops the listener.
func (s *CallbackServer) Shutdown() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		http.Error(w, "Authorization failed: "+errParam, http.StatusBadRequest)
		s.deliver(CallbackResult{Err: fmt.Errorf("authorization denied: %s", errParam)})
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		s.deliver(CallbackResult{Err: fmt.Errorf("callback received no authorization code")})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h2>Authorization complete</h2>"+
		"<p>You can close this window and return to the terminal.</p></body></html>")

	s.deliver(CallbackResult{Code: code, State: q.Get("state")})
}

func (s *CallbackServer) deliver(res CallbackResult) {
	select {
	case s.results <- res:
	default:
	}
}

// selfSignedCert generates a throwaway certificate for the callback host.
func selfSignedCert(hostname string) (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, err
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: hostname, Organization: []string{"Vocal Stack OAuth Setup"}},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{hostname},
	}
	if ip := net.ParseIP(hostname); ip != nil {
		template.IPAddresses = []net.IP{ip}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}, nil
}
