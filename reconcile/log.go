package reconcile

import (
	"fmt"
	"log"
	"os"
)

// Logging convention in the `reconcile` package:
// Urgent:
//     faults and recovered expansion panics. Silent on normal operation.
// Info:
//     infrequent structural events useful for monitoring - root replacement,
//     inspector attach/detach
// Debug:
//     per-flush and per-reconcile trace. Frequent; keep behind the level
//     check.

const LogLevelUrgent = 0
const LogLevelInfo = 50
const LogLevelDebug = 100

var GlobalLogLevel = LogLevelUrgent

var logger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)

func Logger() *log.Logger {
	return logger
}

type LogFunction func(string, ...any)

func LogFn(level int, tag string) LogFunction {
	return func(format string, a ...any) {
		if level <= GlobalLogLevel {
			m := fmt.Sprintf(format, a...)
			Logger().Printf("%s: %s\n", tag, m)
		}
	}
}

func SubLogFn(level int, log LogFunction, tag string) LogFunction {
	return func(format string, a ...any) {
		if level <= GlobalLogLevel {
			m := fmt.Sprintf(format, a...)
			log("%s: %s", tag, m)
		}
	}
}
