// Package sshhost lets the quiz master run the control console over ssh,
// so it can live on a different machine than the person operating it.
package sshhost

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	"github.com/rs/zerolog/log"
	gossh "golang.org/x/crypto/ssh"
)

const (
	ServerIdleTimeout = 10 * time.Minute
	DefaultAddress    = ":2222"
)

type Server struct {
	ListenAddress string
	HostKeyPath   string
	// Password protects the console. Empty means anyone may connect.
	Password string

	// Binary and Args start the console for each ssh session.
	Binary string
	Args   []string

	busy sync.Mutex
	srv  *ssh.Server
}

// LoadOrCreateHostKey reads the host key at path, or generates an ed25519
// key and stores it there.
func LoadOrCreateHostKey(path string) (gossh.Signer, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		signer, err := gossh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("host key %s: %w", path, err)
		}
		return signer, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("host key: %w", err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	block, err := gossh.MarshalPrivateKey(priv, "quizssh host key")
	if err != nil {
		return nil, fmt.Errorf("marshal host key: %w", err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return nil, fmt.Errorf("write host key: %w", err)
	}
	log.Info().Str("path", path).Msg("generated host key")

	return gossh.NewSignerFromKey(priv)
}

func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	ok := subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
	if !ok {
		log.Warn().Str("user", ctx.User()).Str("remote", ctx.RemoteAddr().String()).Msg("wrong password")
	}
	return ok
}

func (s *Server) handle(sess ssh.Session) {
	logger := log.With().Str("user", sess.User()).Str("remote", sess.RemoteAddr().String()).Logger()

	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		io.WriteString(sess, "non-interactive terminals are not supported\n")
		sess.Exit(1)
		return
	}

	if !s.busy.TryLock() {
		io.WriteString(sess, "another quiz master is connected\n")
		sess.Exit(1)
		return
	}
	defer s.busy.Unlock()

	cmdCtx, cancelCmd := context.WithCancel(sess.Context())
	defer cancelCmd()

	cmd := exec.CommandContext(cmdCtx, s.Binary, s.Args...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(ptyReq.Window.Height),
		Cols: uint16(ptyReq.Window.Width),
	})
	if err != nil {
		io.WriteString(sess, fmt.Sprintf("failed to start console: %s\n", err))
		logger.Error().Err(err).Msg("failed to start console")
		sess.Exit(1)
		return
	}
	defer f.Close()
	logger.Info().Msg("console started")

	go func() {
		for win := range winCh {
			pty.Setsize(f, &pty.Winsize{Rows: uint16(win.Height), Cols: uint16(win.Width)})
		}
	}()

	go func() {
		io.Copy(f, sess)
	}()
	io.Copy(sess, f)

	status := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status = exitErr.ExitCode()
		} else {
			status = 1
		}
		logger.Warn().Err(err).Msg("console exited")
	}
	sess.Exit(status)
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.Binary == "" {
		return errors.New("sshhost: no console binary")
	}

	signer, err := LoadOrCreateHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}

	s.srv = &ssh.Server{
		Addr:        s.ListenAddress,
		IdleTimeout: ServerIdleTimeout,
		Handler:     s.handle,
	}
	if s.srv.Addr == "" {
		s.srv.Addr = DefaultAddress
	}
	if s.Password != "" {
		s.srv.PasswordHandler = s.passwordHandler
	}
	s.srv.AddHostKey(signer)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", s.srv.Addr).Msg("ssh console listening")
	err = s.srv.ListenAndServe()
	if errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}
