package dao

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotFound              = errors.New("not found")
	ErrInvalidState          = errors.New("invalid state")
	ErrAlreadyExecuted       = errors.New("proposal already executed")
	ErrDuplicateVote         = errors.New("member already voted")
	ErrAlreadyMember         = errors.New("address is already a member")
	ErrNotAMember            = errors.New("address is not a member")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInvalidParams         = errors.New("invalid params")
)

var (
	ErrProposalNotFound = fmt.Errorf("proposal %w", ErrNotFound)
	ErrProjectNotFound  = fmt.Errorf("project %w", ErrNotFound)
	ErrVotingOpen       = fmt.Errorf("%w: voting still open", ErrInvalidState)
)

// ABCI result codes. Code 1 is reserved for malformed or unverifiable txs.
const (
	CodeOK                    uint32 = 0
	CodeInvalidTx             uint32 = 1
	CodeUnauthorized          uint32 = 2
	CodeNotFound              uint32 = 3
	CodeInvalidState          uint32 = 4
	CodeAlreadyExecuted       uint32 = 5
	CodeDuplicateVote         uint32 = 6
	CodeAlreadyMember         uint32 = 7
	CodeNotAMember            uint32 = 8
	CodeInsufficientBalance   uint32 = 9
	CodeInsufficientAllowance uint32 = 10
	CodeInvalidArgument       uint32 = 11
	CodeInternal              uint32 = 99
)

var errorCodes = []struct {
	err  error
	code uint32
}{
	{ErrUnauthorized, CodeUnauthorized},
	{ErrNotFound, CodeNotFound},
	{ErrInvalidState, CodeInvalidState},
	{ErrAlreadyExecuted, CodeAlreadyExecuted},
	{ErrDuplicateVote, CodeDuplicateVote},
	{ErrAlreadyMember, CodeAlreadyMember},
	{ErrNotAMember, CodeNotAMember},
	{ErrInsufficientBalance, CodeInsufficientBalance},
	{ErrInsufficientAllowance, CodeInsufficientAllowance},
	{ErrInvalidArgument, CodeInvalidArgument},
}

// Code maps an error returned by the components to its ABCI result code.
func Code(err error) uint32 {
	if err == nil {
		return CodeOK
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
