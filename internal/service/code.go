package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/stemsi/exstem-results/internal/repository"
)

const (
	ClassCodePrefix = "CLS"
	ExamCodePrefix  = "EXM"

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 4
	codeAttempts = 5
)

// GenerateCode returns prefix followed by four random A-Z0-9 characters.
// Like crypto/rand.Read, it panics if the system random source fails.
func GenerateCode(prefix string) string {
	code, err := codeFrom(rand.Reader, prefix)
	if err != nil {
		panic(fmt.Sprintf("generate code: %v", err))
	}
	return code
}

// codeFrom draws each character uniformly from codeAlphabet.
func codeFrom(r io.Reader, prefix string) (string, error) {
	size := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, codeLength)
	for i := range b {
		n, err := rand.Int(r, size)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return prefix + string(b), nil
}

// insertWithCode calls insert with fresh codes until it stops colliding.
func insertWithCode(ctx context.Context, prefix string, insert func(code string) error) error {
	for range codeAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := insert(GenerateCode(prefix))
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrCodeExhausted, codeAttempts)
}
