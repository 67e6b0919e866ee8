package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrPackageParse ErrorType = iota
	ErrMetadataLoad
	ErrSignature
	ErrFileOp
	ErrInvalidConfig
	ErrTransaction
	ErrResolve
	ErrOrder
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrPackageParse:
		return "PackageParse"
	case ErrMetadataLoad:
		return "MetadataLoad"
	case ErrSignature:
		return "Signature"
	case ErrFileOp:
		return "FileOp"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrTransaction:
		return "Transaction"
	case ErrResolve:
		return "Resolve"
	case ErrOrder:
		return "Order"
	default:
		return "Unknown"
	}
}

// TxnError represents an error raised while loading, resolving or ordering
// a transaction
type TxnError struct {
	Type    ErrorType
	Package string
	Err     error
}

// Error implements the error interface
func (e *TxnError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *TxnError) Unwrap() error {
	return e.Err
}
