package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
)

// Offline is a host.Host over a saved response. Open only records the URL.
type Offline struct {
	doc    document
	opened []string
}

func NewOffline(headerDump, body string) *Offline {
	return &Offline{doc: document{headers: headerDump, body: body}}
}

// LoadOffline reads a header dump and a body from files. Either path may be
// empty.
func LoadOffline(headerPath, bodyPath string) (*Offline, error) {
	var headers, body []byte
	var err error

	if headerPath != "" {
		if headers, err = os.ReadFile(headerPath); err != nil {
			return nil, fmt.Errorf("cannot read header dump: %w", err)
		}
	}
	if bodyPath != "" {
		if body, err = os.ReadFile(bodyPath); err != nil {
			return nil, fmt.Errorf("cannot read body: %w", err)
		}
	}

	return NewOffline(string(headers), string(body)), nil
}

func (o *Offline) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.opened = append(o.opened, url)
	return nil
}

func (o *Offline) Extract(source host.Source, p string) (string, error) {
	return o.doc.extract(source, p)
}

// Opened returns the URLs passed to Open.
func (o *Offline) Opened() []string {
	return o.opened
}
