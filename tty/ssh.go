package tty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/fyne-io/vt100"
)

const defaultSSHTimeout = 25 * time.Second

// SSHConfig describes the remote shell to open.
type SSHConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	KeyFile  string
	// KnownHosts is a known_hosts file used to verify the server. When empty
	// any host key is accepted.
	KnownHosts      string
	AgentForwarding bool
	Timeout         time.Duration
}

// Addr is host:port, port 22 when unset.
func (c SSHConfig) Addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// SSHShell is a Transport over the shell channel of an SSH session.
type SSHShell struct {
	cfg SSHConfig

	mu        sync.Mutex
	client    *ssh.Client
	session   *ssh.Session
	agentConn net.Conn
	stdin     io.WriteCloser
	stdout    io.Reader
	size      vt100.Size
	status    int
	done      chan struct{}

	log *log.Logger
}

// NewSSHShell prepares an SSH session, nothing is dialled until Init.
func NewSSHShell(cfg SSHConfig) *SSHShell {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultSSHTimeout
	}
	s := &SSHShell{cfg: cfg, size: vt100.Size{Width: 80, Height: 24}}
	s.log = vt100.Logger().With("transport", s.Name())
	return s
}

func (s *SSHShell) Init(ctx context.Context) error {
	addr := s.cfg.Addr()
	d := net.Dialer{Timeout: s.cfg.Timeout}
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial target %s: %w", addr, err)
	}
	client, err := s.handshake(netConn, addr)
	if err != nil {
		_ = netConn.Close()
		s.closeAgent()
		return err
	}

	session, err := client.NewSession()
	if err != nil {
		_ = client.Close()
		s.closeAgent()
		return fmt.Errorf("open session on target %s: %w", addr, err)
	}
	if err := s.startShell(session); err != nil {
		_ = session.Close()
		_ = client.Close()
		s.closeAgent()
		return fmt.Errorf("start shell on target %s: %w", addr, err)
	}

	s.mu.Lock()
	s.client, s.session = client, session
	s.done = make(chan struct{})
	s.mu.Unlock()
	go s.wait(session)
	s.log.Debug("connected")
	return nil
}

func (s *SSHShell) handshake(netConn net.Conn, addr string) (*ssh.Client, error) {
	methods, err := s.buildAuthMethods()
	if err != nil {
		return nil, err
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no authentication method configured for target %s", addr)
	}
	hostKey := ssh.InsecureIgnoreHostKey()
	if s.cfg.KnownHosts != "" {
		hostKey, err = knownhosts.New(s.cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("read known hosts %s: %w", s.cfg.KnownHosts, err)
		}
	}
	sshCfg := &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            methods,
		HostKeyCallback: hostKey,
		Timeout:         s.cfg.Timeout,
	}

	// the deadline only covers the handshake
	_ = netConn.SetDeadline(time.Now().Add(s.cfg.Timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("ssh handshake with target %s: %w", addr, err)
	}
	_ = netConn.SetDeadline(time.Time{})
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// buildAuthMethods tries the agent first, then the key file, then the password.
func (s *SSHShell) buildAuthMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if s.cfg.AgentForwarding {
		if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
			conn, err := net.Dial("unix", sock)
			if err != nil {
				s.log.Warn("ssh agent unavailable", "err", err)
			} else {
				s.mu.Lock()
				s.agentConn = conn
				s.mu.Unlock()
				methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			}
		}
	}

	if s.cfg.KeyFile != "" {
		pem, err := os.ReadFile(s.cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key %s: %w", s.cfg.KeyFile, err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse key %s: %w", s.cfg.KeyFile, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if s.cfg.Password != "" {
		methods = append(methods, ssh.Password(s.cfg.Password))
	}
	return methods, nil
}

func (s *SSHShell) startShell(session *ssh.Session) error {
	stdin, err := session.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return err
	}

	s.mu.Lock()
	size := s.size
	s.mu.Unlock()
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("vt100", size.Height, size.Width, modes); err != nil {
		return fmt.Errorf("request pty: %w", err)
	}
	if err := session.Shell(); err != nil {
		return err
	}

	s.mu.Lock()
	s.stdin, s.stdout = stdin, stdout
	s.mu.Unlock()
	return nil
}

func (s *SSHShell) wait(session *ssh.Session) {
	err := session.Wait()
	status := 0
	var exit *ssh.ExitError
	if errors.As(err, &exit) {
		status = exit.ExitStatus()
	} else if err != nil {
		s.log.Debug("session ended without status", "err", err)
		status = -1
	}

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	close(s.done)
}

func (s *SSHShell) Read(p []byte) (int, error) {
	s.mu.Lock()
	r := s.stdout
	s.mu.Unlock()
	if r == nil {
		return 0, vt100.ErrNotConnected
	}
	return r.Read(p)
}

func (s *SSHShell) Write(p []byte) (int, error) {
	s.mu.Lock()
	w := s.stdin
	s.mu.Unlock()
	if w == nil {
		return 0, vt100.ErrNotConnected
	}
	return w.Write(p)
}

// Resize sends a window-change request. Before Init it sets the pty size.
func (s *SSHShell) Resize(term, _ vt100.Size) error {
	s.mu.Lock()
	s.size = term
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return nil
	}
	return session.WindowChange(term.Height, term.Width)
}

func (s *SSHShell) Close() error {
	s.mu.Lock()
	client, session := s.client, s.session
	s.client, s.session = nil, nil
	s.mu.Unlock()
	defer s.closeAgent()
	if client == nil {
		return nil
	}
	_ = session.Close()
	return client.Close()
}

func (s *SSHShell) closeAgent() {
	s.mu.Lock()
	conn := s.agentConn
	s.agentConn = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// ExitStatus is the remote shell's exit status, -1 when it sent none.
func (s *SSHShell) ExitStatus() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Done is closed when the remote shell exits.
func (s *SSHShell) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *SSHShell) Name() string {
	return "ssh:" + s.cfg.User + "@" + s.cfg.Addr()
}
