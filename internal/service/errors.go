package service

import (
	"errors"
	"fmt"
)

// ErrorKind - внутренний вид ошибки, по нему пишутся логи и метрики
type ErrorKind string

const (
	KindEmptyCart         ErrorKind = "empty_cart"
	KindProductMissing    ErrorKind = "product_missing"
	KindPersistence       ErrorKind = "persistence_failure"
	KindInvoiceGeneration ErrorKind = "invoice_generation_failure"
	KindArtifactNotFound  ErrorKind = "artifact_not_found"
)

// Error - типизированная ошибка оформления заказа и работы со счетами.
// errors.Is(err, ErrEmptyCart) и т.п. сравнивает только вид.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

var (
	ErrEmptyCart         = &Error{Kind: KindEmptyCart}
	ErrProductMissing    = &Error{Kind: KindProductMissing}
	ErrPersistence       = &Error{Kind: KindPersistence}
	ErrInvoiceGeneration = &Error{Kind: KindInvoiceGeneration}
	ErrArtifactNotFound  = &Error{Kind: KindArtifactNotFound}
)

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// UserMessage - понятное покупателю сообщение без технических деталей
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindEmptyCart:
		return "Your cart is empty!"
	case KindProductMissing:
		return "Some products in your cart are no longer available. Please review your cart."
	case KindPersistence:
		return "We could not place your order. Please try again."
	case KindInvoiceGeneration:
		return "Order placed, but the invoice could not be generated."
	case KindArtifactNotFound:
		return "Invoice not found."
	}
	return "Something went wrong. Please try again."
}

// KindOf возвращает вид ошибки или пустую строку для нетипизированных ошибок
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage достаёт пользовательское сообщение из цепочки ошибок
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return "Something went wrong. Please try again."
}
