package geocoding

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain проверяет, что HTTP вызовы и ожидания throttle не оставляют горутин.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}
