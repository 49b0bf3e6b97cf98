package notify

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTPServer accepts one session and records the envelope and data.
type fakeSMTPServer struct {
	ln   net.Listener
	mu   sync.Mutex
	from string
	rcpt []string
	data string
	done chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeSMTPServer{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { ln.Close() })
	go s.serve()
	return s
}

func (s *fakeSMTPServer) port() string {
	_, port, _ := net.SplitHostPort(s.ln.Addr().String())
	return port
}

func (s *fakeSMTPServer) serve() {
	defer close(s.done)
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }
	reply("220 localhost ESMTP")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(cmd)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			reply("250-localhost")
			reply("250 8BITMIME")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			s.mu.Lock()
			s.from = strings.Trim(cmd[len("MAIL FROM:"):], "<> ")
			s.mu.Unlock()
			reply("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			s.mu.Lock()
			s.rcpt = append(s.rcpt, strings.Trim(cmd[len("RCPT TO:"):], "<> "))
			s.mu.Unlock()
			reply("250 OK")
		case upper == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			s.mu.Lock()
			s.data = b.String()
			s.mu.Unlock()
			reply("250 OK queued")
		case upper == "QUIT":
			reply("221 Bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	srv := startFakeSMTP(t)

	mailer := NewSMTPMailer(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    srv.port(),
		From:    "no-reply@mitaict.com",
		Timeout: 5 * time.Second,
	})
	mailer.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	err := mailer.Send(context.Background(), Mail{
		To:      []string{"info@mitaict.com"},
		ReplyTo: "ada@example.com",
		Subject: "New Contact Form Submission from Ada",
		HTML:    "<p>Hello</p>\n<p>World</p>",
	})
	require.NoError(t, err)

	select {
	case <-srv.done:
	case <-time.After(5 * time.Second):
		t.Fatal("smtp session did not finish")
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "no-reply@mitaict.com", srv.from)
	assert.Equal(t, []string{"info@mitaict.com"}, srv.rcpt)
	assert.Contains(t, srv.data, "Subject: New Contact Form Submission from Ada\r\n")
	assert.Contains(t, srv.data, "Reply-To: ada@example.com\r\n")
	assert.Contains(t, srv.data, "Date: Sun, 01 Mar 2026 10:00:00 +0000\r\n")
	assert.Contains(t, srv.data, "Content-Type: text/html; charset=\"utf-8\"\r\n")
	assert.Contains(t, srv.data, "\r\n\r\n<p>Hello</p>\r\n<p>World</p>")
}

func TestSMTPMailer_NoRecipients(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: "1"})
	err := mailer.Send(context.Background(), Mail{Subject: "x"})
	assert.ErrorContains(t, err, "no recipients")
}

func TestSMTPMailer_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	mailer := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: port, Timeout: time.Second})
	err = mailer.Send(context.Background(), Mail{To: []string{"a@b.co"}, Subject: "x"})
	assert.ErrorContains(t, err, "failed to connect to smtp server")
}

func TestCompose_EncodesUnsafeSubject(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{From: "no-reply@mitaict.com"})
	msg := string(mailer.compose(Mail{To: []string{"a@b.co"}, Subject: "Hi\r\nBcc: evil@example.com"}))

	assert.NotContains(t, msg, "\r\nBcc:")
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
}
