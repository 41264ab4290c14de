package viewer

import "github.com/maxpmaxp/pdfreader/contentstream"

// Hooks implements spec §4.13's dispatch protocol: before_handler, the
// staged before_<op>/on_<op>/after_<op> triple (or their inline-image
// equivalents), then after_handler. Every field is optional; a nil hook is
// simply skipped. An OnOperator/OnInlineImage hook that returns true
// suppresses the core's own handling of that record, letting a caller
// override or extend individual operators without forking the dispatcher.
type Hooks struct {
	BeforeHandler func(rec contentstream.Record)
	AfterHandler  func(rec contentstream.Record)

	BeforeOperator func(op *contentstream.Operator)
	OnOperator     func(op *contentstream.Operator) (handled bool)
	AfterOperator  func(op *contentstream.Operator)

	BeforeInlineImage func(img contentstream.InlineImage)
	OnInlineImage     func(img contentstream.InlineImage) (handled bool)
	AfterInlineImage  func(img contentstream.InlineImage)
}
