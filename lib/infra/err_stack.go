package infra

// References:
// https://github.com/pkg/errors/blob/master/errors.go
// https://pkg.go.dev/runtime#Callers

import (
	"runtime"
	"strings"

	"go.uber.org/zap/zapcore"
)

const maxStackDepth = 16

type ErrorStack interface {
	error
	Unwrap() error
	zapcore.ObjectMarshaler
}

var _ ErrorStack = (*errStack)(nil)

type errStack struct {
	msg    string
	cause  error
	frames []Frame
}

func (es *errStack) Error() string {
	builder := strings.Builder{}
	builder.WriteString(es.msg)
	if es.cause != nil {
		if len(es.msg) > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(es.cause.Error())
	}
	return builder.String()
}

func (es *errStack) Unwrap() error { return es.cause }

func (es *errStack) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("error", es.Error())
	return enc.AddArray("stack", zapcore.ArrayMarshalerFunc(func(arr zapcore.ArrayEncoder) error {
		for _, frame := range es.frames {
			arr.AppendString(frame.String())
		}
		return nil
	}))
}

func callers(skip int) []Frame {
	pcs := [maxStackDepth]uintptr{}
	n := runtime.Callers(skip, pcs[:])
	frames := make([]Frame, 0, n)
	for _, pc := range pcs[:n] {
		frames = append(frames, Frame(pc))
	}
	return frames
}

// NewErrorStack creates an error carrying the call stack of its birthplace.
func NewErrorStack(msg string) error {
	return &errStack{
		msg:    msg,
		frames: callers(3),
	}
}

// WrapErrorStack attaches the current call stack to err.
// A nil err passes through as nil.
func WrapErrorStack(err error) error {
	if err == nil {
		return nil
	}
	if es, ok := err.(*errStack); ok {
		return es
	}
	return &errStack{
		cause:  err,
		frames: callers(3),
	}
}

func WrapErrorStackWithMessage(err error, msg string) error {
	if err == nil {
		if len(msg) <= 0 {
			return nil
		}
		return &errStack{
			msg:    msg,
			frames: callers(3),
		}
	}
	return &errStack{
		msg:    msg,
		cause:  err,
		frames: callers(3),
	}
}
