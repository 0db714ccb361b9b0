package pipeline

import (
	"context"
	"errors"
	"io/fs"

	"github.com/matzehuels/trustchain/pkg/chain"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/integrations/chainapi"
)

// Fetcher loads chain analyses from an upstream service.
type Fetcher interface {
	FetchChain(ctx context.Context, q chainapi.Query, refresh bool) (*chain.Response, error)
}

var _ Fetcher = (*chainapi.Client)(nil)

// LoadFile decodes the chain analysis stored at path. A missing file is
// FILE_NOT_FOUND, malformed JSON is INVALID_INPUT.
func LoadFile(path string) (*chain.Response, error) {
	resp, err := chain.ReadFile(path)
	if err == nil {
		return resp, nil
	}
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, tcerrors.Wrap(tcerrors.ErrCodeFileNotFound, err, "chain file %s", path)
	case errors.As(err, &pathErr):
		return nil, tcerrors.Wrap(tcerrors.ErrCodeInvalidPath, err, "chain file %s", path)
	default:
		return nil, tcerrors.Wrap(tcerrors.ErrCodeInvalidInput, err, "chain file %s", path)
	}
}
