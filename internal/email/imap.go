package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// AppendSent stores msg in folder on the IMAP server, flagged as seen,
// so that dictated mail shows up in the account's Sent folder. The
// connection is opened and closed per call.
func AppendSent(ctx context.Context, cfg IMAPConfig, folder string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var opts imapclient.Options
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}

	var client *imapclient.Client
	var err error
	if cfg.TLS {
		client, err = imapclient.DialTLS(addr, &opts)
	} else {
		client, err = imapclient.DialInsecure(addr, &opts)
	}
	if err != nil {
		return fmt.Errorf("dial IMAP %s: %w", addr, err)
	}
	defer client.Close()

	// The imapclient commands block without a context; closing the
	// connection unblocks them when ctx ends first.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	if err := client.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		return fmt.Errorf("login as %s: %w", cfg.Username, err)
	}

	cmd := client.Append(folder, int64(len(msg)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagSeen},
		Time:  time.Now(),
	})
	if _, err := cmd.Write(msg); err != nil {
		return fmt.Errorf("append to %s: %w", folder, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("append to %s: %w", folder, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("append to %s: %w", folder, err)
	}

	_ = client.Logout().Wait()
	return nil
}
