package control

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestServiceDesc verifies every method is routed under the service name and no source file is claimed.
func TestServiceDesc(t *testing.T) {
	t.Parallel()

	require.Equal(t, ServiceName, serviceDesc.ServiceName)
	require.Empty(t, serviceDesc.Metadata)
	require.Empty(t, serviceDesc.Streams)

	fullNames := []string{
		ScheduleNextMethod, ScheduleAtMethod, CancelMethod, FireMethod,
		SnoozeMethod, DismissMethod, SetEnabledMethod, DeleteMethod,
	}

	require.Len(t, serviceDesc.Methods, len(fullNames))

	for i, method := range serviceDesc.Methods {
		require.NotNil(t, method.Handler)
		require.Equal(t, fullNames[i], "/"+ServiceName+"/"+method.MethodName)
	}
}
