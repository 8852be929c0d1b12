package logger

import (
	"io"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Имена полей, по которым логи сервиса жалоб ищутся в Kibana
const (
	FieldRequestID = "request_id"
	FieldStoreID   = "store_id"
	FieldUserID    = "user_id"
	FieldJobID     = "job_id"
	FieldReviewID  = "review_id"
)

var log zerolog.Logger

func Init(serviceName string, level string) {
	log = build(os.Stdout, serviceName, level)
}

func InitWithWriter(serviceName string, level string, w io.Writer) {
	log = build(w, serviceName, level)
}

func InitLogstash(addr string, serviceName string, level string) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return err
	}

	log = build(zerolog.MultiLevelWriter(os.Stdout, conn), serviceName, level)
	return nil
}

// build - неизвестный уровень превращается в info
func build(w io.Writer, serviceName string, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}

func With() zerolog.Context {
	return log.With()
}

// Job - логгер backfill задачи: каждая запись несет job_id и store_id
func Job(jobID, storeID uuid.UUID) *zerolog.Logger {
	l := log.With().
		Str(FieldJobID, jobID.String()).
		Str(FieldStoreID, storeID.String()).
		Logger()
	return &l
}

// Review - логгер обработки одного отзыва
func Review(reviewID, storeID uuid.UUID) *zerolog.Logger {
	l := log.With().
		Str(FieldReviewID, reviewID.String()).
		Str(FieldStoreID, storeID.String()).
		Logger()
	return &l
}
