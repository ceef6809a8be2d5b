package services

import "errors"

// Connection errors
var (
	ErrConnectionNotFound     = errors.New("connection: not found")
	ErrConnectionInvalidInput = errors.New("connection: invalid input")
)

// Transfer errors. Every one of these is caught at the subtask boundary and
// becomes a terminal subtask status; none may escape the orchestrator.
var (
	ErrTransferConnection           = errors.New("transfer: host unreachable")
	ErrTransferCapability           = errors.New("transfer: no usable transfer tool")
	ErrTransferCredentialCapability = errors.New("transfer: credential relay helper missing")
	ErrTransferCredentialState      = errors.New("transfer: inconsistent credential configuration")
	ErrTransferDirectoryPreparation = errors.New("transfer: destination directory preparation failed")
	ErrTransferExecution            = errors.New("transfer: command failed")
	ErrTransferTimeout              = errors.New("transfer: operation timed out")
	ErrTransferCancelled            = errors.New("transfer: cancelled")
)

// Encryption errors
var (
	ErrEncryptionFailed = errors.New("encryption: failed to encrypt data")
	ErrDecryptionFailed = errors.New("encryption: failed to decrypt data")
)
