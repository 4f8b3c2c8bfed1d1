package scatter

import (
	"errors"
	"fmt"

	"github.com/gogpu/scatter/dataset"
	"github.com/gogpu/scatter/lambda"
)

// Sentinel errors. Failures are wrapped with context, so test with
// errors.Is.
var (
	// ErrUnboundField is returned when an operation needs a bound field
	// and the aesthetic has none.
	ErrUnboundField = errors.New("scatter: no field bound")

	// ErrMissingColumn is returned when the bound field is not a column
	// of the loaded data.
	ErrMissingColumn = dataset.ErrMissingColumn

	// ErrMalformedLambda is returned when a lambda string cannot be split
	// into a parameter and a body, or its body does not compile.
	ErrMalformedLambda = lambda.ErrMalformed

	// ErrUnboundFunction is returned when a lambda channel is evaluated
	// before its function was materialized.
	ErrUnboundFunction = errors.New("scatter: lambda channel has no function")

	// ErrInvalidChannel is returned for channel descriptions that match
	// none of the channel shapes.
	ErrInvalidChannel = errors.New("scatter: invalid channel")

	// ErrUnknownAesthetic is returned for aesthetic names other than the
	// supported kinds.
	ErrUnknownAesthetic = errors.New("scatter: unknown aesthetic")
)

// ChannelError describes why a channel description was rejected.
type ChannelError struct {
	Key    string
	Reason string
}

func (e *ChannelError) Error() string {
	if e.Key == "" {
		return "scatter: invalid channel: " + e.Reason
	}
	return fmt.Sprintf("scatter: invalid channel.%s: %s", e.Key, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidChannel) hold for every ChannelError.
func (e *ChannelError) Is(target error) bool {
	return target == ErrInvalidChannel
}
