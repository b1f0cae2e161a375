// Package pipe models the ICA ingestion pipe: an at-least-once queue with a
// monitored dead-letter queue draining into one state machine, one message
// per invocation.
//
// Synthesize renders the deployed resources. Simulator runs the same
// configuration in memory so delivery, redrive and alarm behaviour can be
// exercised without AWS.
package pipe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/resources/pipes"
)

// BodyPath is the field the pipe extracts from each queue record.
const BodyPath = "$.body"

// Config describes the pipe and its queues.
type Config struct {
	PipeName            string                    `validate:"required"`
	QueueName           string                    `validate:"required"`
	DeadLetterThreshold int                       `validate:"min=1"`
	MaxReceiveCount     int                       `validate:"min=1"`
	VisibilityTimeout   time.Duration             `validate:"min=1s"`
	Target              registry.StateMachineName `validate:"required"`
	BatchSize           int                       `validate:"eq=1"`
	InvocationType      string                    `validate:"oneof=FIRE_AND_FORGET REQUEST_RESPONSE"`

	// ProducerAccount may send messages to the queue.
	ProducerAccount string `validate:"required,numeric,len=12"`
	// AlarmTopicName is the SNS topic notified when the alarm fires.
	AlarmTopicName string `validate:"required"`
}

// DeadLetterQueueName is the queue that receives undeliverable messages.
func (c Config) DeadLetterQueueName() string {
	return c.QueueName + "-dlq"
}

// FromStage derives the pipe configuration from the stage configuration.
func FromStage(cfg *config.Config) Config {
	return Config{
		PipeName:            config.EventPipeName,
		QueueName:           config.IcaQueueName,
		DeadLetterThreshold: config.DLQAlarmThreshold,
		MaxReceiveCount:     config.DLQMaxReceiveCount,
		VisibilityTimeout:   config.IcaQueueVisibilityTimeout,
		Target:              registry.HandleIcaEvent,
		BatchSize:           1,
		InvocationType:      pipes.InvocationFireAndForget,
		ProducerAccount:     cfg.IcaAccountNumber,
		AlarmTopicName:      cfg.SlackTopicName,
	}
}

var validate = validator.New()

// Validate checks the configuration.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Wrap(errs.KindConfig, errs.CodeInvalidConfig, c.PipeName, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errs.Config(errs.CodeInvalidConfig, c.PipeName, "%s", strings.Join(fields, "; "))
}
