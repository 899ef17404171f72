package v1

import (
	"github.com/andreyxaxa/memories-server/internal/usecase"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/go-playground/validator/v10"
)

type V1 struct {
	accounts  usecase.AccountUseCase
	uploads   usecase.UploadUseCase
	retrieval usecase.RetrievalUseCase
	logger    logger.Interface
	v         *validator.Validate
}
