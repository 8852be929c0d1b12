package logger

import (
	nanoid "github.com/jaevor/go-nanoid"
)

// Длина request id совпадает с длиной стандартного nanoid
const requestIDLength = 21

var requestIDGenerator = newRequestIDGenerator()

func newRequestIDGenerator() func() string {
	gen, err := nanoid.Standard(requestIDLength)
	if err != nil {
		panic(err)
	}
	return gen
}

func generateRequestID() string {
	return requestIDGenerator()
}
