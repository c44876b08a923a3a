package infra

import (
	"path"
	"runtime"
	"strconv"
	"strings"
)

type Frame uintptr

func (frame Frame) pc() uintptr {
	return uintptr(frame) - 1
}

func (frame Frame) location() (fn string, file string, line int) {
	f := runtime.FuncForPC(frame.pc())
	if f == nil {
		return "unknownFunc", "unknownFile", 0
	}
	file, line = f.FileLine(frame.pc())
	return funcName(f.Name()), path.Base(file), line
}

// String renders as <func> <file>:<line>.
func (frame Frame) String() string {
	fn, file, line := frame.location()
	builder := strings.Builder{}
	builder.WriteString(fn)
	builder.WriteString(" ")
	builder.WriteString(file)
	builder.WriteString(":")
	builder.WriteString(strconv.Itoa(line))
	return builder.String()
}

func funcName(name string) string {
	i := strings.LastIndex(name, "/")
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}
