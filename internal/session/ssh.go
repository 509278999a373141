package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"premigration-validator/internal/device"
)

// SSHConfig tunes the SSH transport. Zero values fall back to the defaults below.
type SSHConfig struct {
	// Timeout bounds TCP connect and, separately, the SSH handshake.
	Timeout time.Duration `yaml:"timeout"`
	// KnownHostsFile enables host key verification. Empty accepts any key.
	KnownHostsFile string `yaml:"known_hosts"`
	// ShellSettle is how long to let an interactive shell print before
	// sending the next line, and how long to wait for a command to finish.
	ShellSettle time.Duration `yaml:"shell_settle"`
}

const (
	DefaultSSHTimeout  = 30 * time.Second
	DefaultShellSettle = 2 * time.Second
)

// SSH runs commands over golang.org/x/crypto/ssh. IOS-XR devices get an
// interactive PTY shell per command; everything else uses an exec channel.
type SSH struct {
	device device.Descriptor
	config SSHConfig
	logger logr.Logger

	client *ssh.Client
}

var _ Session = (*SSH)(nil)

func NewSSH(d device.Descriptor, cfg SSHConfig, logger logr.Logger) *SSH {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultSSHTimeout
	}
	return &SSH{device: d, config: cfg, logger: logger.WithValues("device", d.Hostname)}
}

// SSHFactory returns a Factory producing SSH sessions that share cfg.
func SSHFactory(cfg SSHConfig, logger logr.Logger) Factory {
	return func(d device.Descriptor) Session {
		return NewSSH(d, cfg, logger)
	}
}

func (s *SSH) clientConfig() (*ssh.ClientConfig, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if s.config.KnownHostsFile != "" {
		cb, err := knownhosts.New(s.config.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	password := s.device.Password
	return &ssh.ClientConfig{
		User: s.device.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			// Some IOS-XE AAA setups only offer keyboard-interactive.
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         s.config.Timeout,
	}, nil
}

func (s *SSH) Open(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	cfg, err := s.clientConfig()
	if err != nil {
		return err
	}

	addr := s.device.Endpoint()
	dialer := net.Dialer{Timeout: s.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	// ssh.NewClientConn ignores ClientConfig.Timeout, so the handshake is
	// bounded by a connection deadline and by ctx.
	deadline := time.Now().Add(s.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if !stop() {
		if err == nil {
			c.Close()
		}
		return ctx.Err()
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	s.client = ssh.NewClient(c, chans, reqs)
	s.logger.V(1).Info("connected", "address", addr, "platform", s.device.Platform)
	return nil
}

func (s *SSH) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *SSH) Send(ctx context.Context, req Request) (Output, error) {
	if s.client == nil {
		return Output{}, errors.New("session not open")
	}

	var (
		text string
		err  error
	)
	if s.device.Platform.Interactive() {
		text, err = s.runShell(ctx, req.Command)
	} else {
		text, err = s.runExec(ctx, req.Command)
	}
	if err != nil {
		return Output{}, err
	}
	return NewOutput(req, text), nil
}

// runExec runs one command on its own exec channel.
func (s *SSH) runExec(ctx context.Context, cmd string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("session failed: %w", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	err = waitContext(ctx, sess, func() error { return sess.Run(cmd) })
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if stdout.Len() == 0 {
		if err != nil {
			return "", fmt.Errorf("command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return stderr.String(), nil
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\n" + stderr.String()
	}
	return output, nil
}

// runShell drives an interactive PTY shell: disable paging, send the
// command, exit, then strip prompts and echoes from what came back.
func (s *SSH) runShell(ctx context.Context, cmd string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("session failed: %w", err)
	}
	defer sess.Close()

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty("vt100", 80, 500, modes); err != nil {
		return "", fmt.Errorf("PTY failed: %w", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("stdin pipe failed: %w", err)
	}
	var buf syncBuffer
	sess.Stdout = &buf
	sess.Stderr = &buf

	if err := sess.Shell(); err != nil {
		return "", fmt.Errorf("shell failed: %w", err)
	}

	settle := s.config.ShellSettle
	if settle == 0 {
		settle = DefaultShellSettle
	}
	script := []struct {
		line  string
		pause time.Duration
	}{
		{"", settle / 2},
		{"terminal length 0", settle / 4},
		{cmd, settle},
		{"exit", settle / 4},
	}
	for _, step := range script {
		if step.line != "" {
			if _, err := io.WriteString(stdin, step.line+"\n"); err != nil {
				return "", fmt.Errorf("writing %q: %w", step.line, err)
			}
		}
		if err := pause(ctx, step.pause); err != nil {
			return "", err
		}
	}
	stdin.Close()

	if err := waitContext(ctx, sess, sess.Wait); err != nil {
		var exitErr *ssh.ExitMissingError
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// XR rarely sends an exit-status after "exit"; that is not a failure.
		if !errors.As(err, &exitErr) {
			s.logger.V(1).Info("shell ended with error", "command", cmd, "error", err)
		}
	}
	return CleanShellOutput(buf.String(), cmd), nil
}

// waitContext runs fn and closes sess if ctx ends first, which unblocks fn.
func waitContext(ctx context.Context, sess *ssh.Session, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		sess.Close()
		<-done
		return ctx.Err()
	}
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// syncBuffer lets the stdout and stderr copiers of a session share one buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
