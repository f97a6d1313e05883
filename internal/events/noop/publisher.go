// Package noop drops events. Used in dev mode and tests where no broker is
// configured.
package noop

import "github.com/sheikh-saqib/agent-earnings-engine/internal/interfaces"

type Publisher struct{}

func NewPublisher() *Publisher { return &Publisher{} }

func (*Publisher) Publish(topic string, event any) error { return nil }

var _ interfaces.EventPublisher = (*Publisher)(nil)
