package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErr "github.com/navin3756/shipit/pkg/errors"
)

func TestInitRejectsBadSettings(t *testing.T) {
	_, err := Init("loud", "json")
	require.Error(t, err)
	_, err = Init("info", "xml")
	require.Error(t, err)
}

func TestInitSetsGlobal(t *testing.T) {
	l, err := Init("debug", "console")
	require.NoError(t, err)
	require.Same(t, l, L())
	require.NotNil(t, Named("store"))
}

func TestFields(t *testing.T) {
	require.Equal(t, zap.String("project_id", "p1"), Project("p1"))
	require.Equal(t, zap.String("error_code", "not_found"), Code(appErr.New(appErr.CodeNotFound, "gone")))
	require.Equal(t, zap.String("error_code", "unknown"), Code(errors.New("plain")))
}
