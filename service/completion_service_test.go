package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"seraphina/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCompletionService_Process_Success(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockChatLogRepo := new(MockChatLogRepository)
	mockCompleter := new(MockChatCompleter)

	mockUoW.SetRepositories(nil, nil, mockChatLogRepo)

	service := NewCompletionService(mockFactory, mockCompleter, 30*time.Second)

	mockCompleter.On("Complete", mock.Anything, "why is the sky blue").
		Return("Rayleigh scattering, mostly.", nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockChatLogRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.ChatLog) bool {
		return e.UserID == "user-1" &&
			e.OriginalQuery == "why is the sky blue" &&
			e.Response == "Rayleigh scattering, mostly."
	})).Return(nil)

	job := models.NewJob("user-1", models.CapabilityChatCompletion, "why is the sky blue")
	outcome := service.Process(ctx, job)

	assert.True(t, outcome.Success)
	assert.Equal(t, "Rayleigh scattering, mostly.", outcome.Content)
	assert.NoError(t, outcome.Err)

	mockCompleter.AssertExpectations(t)
	mockChatLogRepo.AssertExpectations(t)
}

func TestCompletionService_Process_ProviderError(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	mockCompleter := new(MockChatCompleter)

	service := NewCompletionService(mockFactory, mockCompleter, 30*time.Second)

	providerErr := errors.New("model overloaded")
	mockCompleter.On("Complete", mock.Anything, mock.Anything).Return("", providerErr)

	job := models.NewJob("user-1", models.CapabilityChatCompletion, "hello")
	outcome := service.Process(ctx, job)

	// Provider failures become failure outcomes, never panics or
	// swallowed nils
	assert.False(t, outcome.Success)
	assert.ErrorIs(t, outcome.Err, providerErr)

	// No transcript for a failed completion
	mockFactory.AssertNotCalled(t, "Create")
}

func TestCompletionService_Process_ChatLogFailureStillSucceeds(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockChatLogRepo := new(MockChatLogRepository)
	mockCompleter := new(MockChatCompleter)

	mockUoW.SetRepositories(nil, nil, mockChatLogRepo)

	service := NewCompletionService(mockFactory, mockCompleter, 30*time.Second)

	mockCompleter.On("Complete", mock.Anything, mock.Anything).Return("answer", nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockChatLogRepo.On("Append", mock.Anything, mock.Anything).
		Return(errors.New("database unavailable"))

	job := models.NewJob("user-1", models.CapabilityChatCompletion, "hello")
	outcome := service.Process(ctx, job)

	// Transcript recording is best effort
	assert.True(t, outcome.Success)
	assert.Equal(t, "answer", outcome.Content)
}
