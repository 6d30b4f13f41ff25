// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package interact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/galaxy-lang/galaxy/galaxy/ast"
	"github.com/galaxy-lang/galaxy/galaxy/modem"
)

// sendData modulates data, passes it through send, demodulates the
// reply, and rejects a reply whose decoded head item is 0 (a
// server-side request error), per spec.md §6.
func sendData(send SendFn, data *ast.Node) (*ast.Node, error) {
	encoded, err := modem.Modulate(data)
	if err != nil {
		return nil, fmt.Errorf("interact: modulate outgoing data: %w", err)
	}
	reply, err := send(encoded)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	decoded, err := modem.Demodulate(reply)
	if err != nil {
		return nil, fmt.Errorf("interact: demodulate reply: %w", err)
	}
	if err := checkReply(decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// checkReply inspects the decoded reply's first list element and
// treats 0 there as a server-side rejection, grounded on
// original_source/ships/src/main.rs's response-head check.
func checkReply(decoded *ast.Node) error {
	head, ok := decoded.GetListItem(0)
	if !ok {
		return nil
	}
	v, ok := head.GetNumber()
	if ok && v == 0 {
		return &TransportError{Err: fmt.Errorf("server rejected request (head element is 0)")}
	}
	return nil
}

// HTTPSend builds a SendFn that POSTs the modulated body to
// serverURL+"/aliens/send", appending "?apiKey="+apiKey when apiKey
// is non-empty, per spec.md §6's wire protocol. It is grounded on
// original_source/ships/src/main.rs's reqwest-based client and on
// auth.S3Bearer's *http.Client + context.Context shape
// (auth/s3auth.go).
func HTTPSend(client *http.Client, serverURL, apiKey string) SendFn {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	endpoint := strings.TrimSuffix(serverURL, "/") + "/aliens/send"
	if apiKey != "" {
		endpoint += "?apiKey=" + url.QueryEscape(apiKey)
	}
	return func(encoded string) (string, error) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, endpoint, strings.NewReader(encoded))
		if err != nil {
			return "", fmt.Errorf("interact: building request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("interact: POST %s: %w", endpoint, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("interact: reading response body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", fmt.Errorf("interact: %s: unexpected status %s", endpoint, resp.Status)
		}
		return string(body), nil
	}
}

// ParseSend builds a SendFn from a textual specification: an
// http(s):// URL dials the live alien server via HTTPSend, the empty
// string builds an offline "echo" transport that returns whatever it
// was asked to send, for exercising the driver loop without a network,
// and any other spec is rejected with an error.
//
// Grounded on auth.Parse's http-prefix-vs-local dispatch
// (auth/auth.go).
func ParseSend(spec, apiKey string) (SendFn, error) {
	if strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://") {
		return HTTPSend(nil, spec, apiKey), nil
	}
	if spec != "" {
		return nil, fmt.Errorf("interact: ParseSend: unsupported transport spec %q", spec)
	}
	return echoSend, nil
}

func echoSend(encoded string) (string, error) { return encoded, nil }

// Send performs one modulate/send/demodulate round-trip for a data
// value the Driver already produced, for callers (cmd/galaxyctl) that
// drive the interact/send cycle one step at a time rather than via
// Run's blocking loop.
func (d *Driver) Send(send SendFn, data *ast.Node) (*ast.Node, error) {
	return sendData(send, data)
}
