package pictdb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf_UnwrapsPictdbError(t *testing.T) {
	err := newErr("Insert", ErrDuplicateID, errors.New("boom"))
	require.Equal(t, ErrDuplicateID, KindOf(err))
}

func TestKindOf_NilIsNone(t *testing.T) {
	require.Equal(t, ErrNone, KindOf(nil))
}

func TestKindOf_UnclassifiedIsIO(t *testing.T) {
	require.Equal(t, ErrIO, KindOf(errors.New("unrelated failure")))
}

func TestErrorCode_MatchesKind(t *testing.T) {
	err := newErr("Read", ErrFileNotFound, nil)
	require.Equal(t, int(ErrFileNotFound), err.Code())
}
