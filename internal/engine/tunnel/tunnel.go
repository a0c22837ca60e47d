// Package tunnel forwards a local ephemeral port to a remote database
// through an SSH bastion.
package tunnel

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"sqldeck/internal/model"
)

// Session is an open forwarded tunnel. It is owned exclusively by the call
// that created it and must be closed exactly once on every exit path.
// Close is idempotent and safe on a nil session ("no tunnel").
type Session struct {
	client    *ssh.Client
	listener  net.Listener
	closeOnce sync.Once
	done      chan struct{}
}

// Open establishes an SSH connection to the bastion and starts forwarding a
// local ephemeral port to targetHost:targetPort. No resources are leaked
// when Open fails; on success the caller owns the returned session.
func Open(cfg *model.SSHTunnelConfig, targetHost string, targetPort int) (*Session, error) {
	auth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User: cfg.Username,
		Auth: auth,
		// Desktop clients connect to bastions the user configured by hand;
		// host-key pinning is a settings concern outside this core.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("local listener: %w", err)
	}

	s := &Session{
		client:   client,
		listener: listener,
		done:     make(chan struct{}),
	}
	go s.forward(fmt.Sprintf("%s:%d", targetHost, targetPort))

	return s, nil
}

// Addr returns the local host and port the native driver should connect to
// instead of the configured database address
func (s *Session) Addr() (string, int) {
	tcpAddr := s.listener.Addr().(*net.TCPAddr)
	return "127.0.0.1", tcpAddr.Port
}

// Close tears the tunnel down. Safe to call multiple times and on nil.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.done)
		s.listener.Close()
		s.client.Close()
	})
}

// forward accepts local connections and pipes each through the SSH channel
func (s *Session) forward(remoteAddr string) {
	for {
		local, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
			default:
			}
			return
		}

		go func() {
			defer local.Close()
			remote, err := s.client.Dial("tcp", remoteAddr)
			if err != nil {
				return
			}
			defer remote.Close()

			go io.Copy(remote, local)
			io.Copy(local, remote)
		}()
	}
}

// authMethods builds the SSH auth chain for the configured method
func authMethods(cfg *model.SSHTunnelConfig) ([]ssh.AuthMethod, error) {
	switch cfg.AuthMethod {
	case model.SSHAuthPassword:
		if cfg.Password == "" {
			return nil, fmt.Errorf("ssh password auth selected but no password given")
		}
		return []ssh.AuthMethod{ssh.Password(cfg.Password)}, nil

	case model.SSHAuthPrivateKey:
		if cfg.PrivateKey == "" {
			return nil, fmt.Errorf("ssh key auth selected but no key material given")
		}
		var signer ssh.Signer
		var err error
		if cfg.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(cfg.PrivateKey), []byte(cfg.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey([]byte(cfg.PrivateKey))
		}
		if err != nil {
			return nil, fmt.Errorf("parse ssh private key: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil

	case model.SSHAuthAgent:
		sock := os.Getenv("SSH_AUTH_SOCK")
		if sock == "" {
			return nil, fmt.Errorf("ssh agent auth selected but SSH_AUTH_SOCK is not set")
		}
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return nil, fmt.Errorf("connect ssh agent: %w", err)
		}
		ag := agent.NewClient(conn)
		return []ssh.AuthMethod{ssh.PublicKeysCallback(ag.Signers)}, nil

	default:
		return nil, fmt.Errorf("unknown ssh auth method %q", cfg.AuthMethod)
	}
}
