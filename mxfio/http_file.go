package mxfio

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bmx-go/bmx/errs"
)

// DefaultHTTPReadAhead is the minimum read-ahead buffer size for sequential
// reads.
const DefaultHTTPReadAhead = 64 * 1024

// HTTPFile is a read-only range-request client. Ordinary
// sequential reads are satisfied from a read-ahead buffer; a non-overlapping
// seek discards the buffer and issues a fresh range request. Opening fails
// with ErrRangesUnsupported if the server does not advertise
// "Accept-Ranges: bytes".
type HTTPFile struct {
	client    *http.Client
	url       string
	size      int64
	pos       int64
	readAhead int

	buf       []byte
	bufStart  int64 // file offset the buffer's first byte corresponds to
}

var _ File = (*HTTPFile)(nil)

// OpenHTTPFile issues a HEAD request to discover the resource size and range
// support, then returns a file ready for range-based reads.
func OpenHTTPFile(client *http.Client, url string, readAhead int) (*HTTPFile, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if readAhead <= 0 {
		readAhead = DefaultHTTPReadAhead
	}

	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	defer resp.Body.Close()

	if !strings.EqualFold(resp.Header.Get("Accept-Ranges"), "bytes") {
		return nil, errs.ErrRangesUnsupported
	}

	size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: missing or invalid Content-Length", errs.ErrIO)
	}

	return &HTTPFile{client: client, url: url, size: size, readAhead: readAhead}, nil
}

// fetchRange issues a GET with a Range header covering [offset, offset+n).
func (h *HTTPFile) fetchRange(offset int64, n int) ([]byte, error) {
	end := offset + int64(n) - 1
	if end >= h.size {
		end = h.size - 1
	}
	req, err := http.NewRequest(http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, end))

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", errs.ErrIO, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return data, nil
}

func (h *HTTPFile) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && h.pos < h.size {
		// Serve from the read-ahead buffer when it covers the cursor.
		if h.buf != nil && h.pos >= h.bufStart && h.pos < h.bufStart+int64(len(h.buf)) {
			off := int(h.pos - h.bufStart)
			c := copy(p[n:], h.buf[off:])
			n += c
			h.pos += int64(c)
			continue
		}

		want := h.readAhead
		if want < len(p)-n {
			want = len(p) - n
		}
		data, err := h.fetchRange(h.pos, want)
		if err != nil {
			return n, err
		}
		h.buf = data
		h.bufStart = h.pos
		if len(data) == 0 {
			break
		}
	}
	return n, nil
}

func (h *HTTPFile) Write([]byte) (int, error) {
	return 0, fmt.Errorf("%w: HTTPFile is read-only", errs.ErrIO)
}

func (h *HTTPFile) GetByte() (byte, error) {
	var buf [1]byte
	if _, err := h.Read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (h *HTTPFile) PutByte(byte) error {
	return fmt.Errorf("%w: HTTPFile is read-only", errs.ErrIO)
}

// Seek repositions the cursor. A seek that lands outside the current
// read-ahead buffer discards it; the next Read issues a fresh range request
// ("non-overlapping seeks discard the buffer").
func (h *HTTPFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case SeekStart:
		base = 0
	case SeekCurrent:
		base = h.pos
	case SeekEnd:
		base = h.size
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", errs.ErrIO, whence)
	}
	newPos := base + offset
	if h.buf == nil || newPos < h.bufStart || newPos >= h.bufStart+int64(len(h.buf)) {
		h.buf = nil
	}
	h.pos = newPos
	return h.pos, nil
}

func (h *HTTPFile) Tell() (int64, error) { return h.pos, nil }

func (h *HTTPFile) Size() (int64, error) { return h.size, nil }

func (h *HTTPFile) Eof() (bool, error) { return h.pos >= h.size, nil }

func (h *HTTPFile) IsSeekable() bool { return true }

func (h *HTTPFile) Close() error { return nil }

func (h *HTTPFile) ReadKL() ([16]byte, int, uint64, error) {
	return ReadKL(h)
}

func (h *HTTPFile) WriteFixedKL([16]byte, int, uint64) error {
	return fmt.Errorf("%w: HTTPFile is read-only", errs.ErrIO)
}
