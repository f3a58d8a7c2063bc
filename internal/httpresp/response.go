package httpresp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
)

// Result é o envelope devolvido por todas as ações expostas
type Result struct {
	Success      bool               `json:"success"`
	Data         any                `json:"data,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Kind         apperr.Kind        `json:"kind,omitempty"`
	Shortfalls   []apperr.Shortfall `json:"shortfalls,omitempty"`
}

// StatusFor traduz o Kind do erro para o status HTTP
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindInvalidState, apperr.KindAlreadyConfirmed, apperr.KindAlreadyDecided, apperr.KindInsufficientStock:
		return http.StatusConflict
	case apperr.KindMalformedCart:
		return http.StatusUnprocessableEntity
	case apperr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// OK escreve uma resposta de sucesso
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Result{Success: true, Data: data})
}

// Created escreve uma resposta de criação
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Result{Success: true, Data: data})
}

// Fail escreve a falha estruturada; erros de infraestrutura não expõem detalhes
func Fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	res := Result{Success: false, Kind: kind}

	if kind == apperr.KindInternal {
		res.ErrorMessage = "internal error"
	} else {
		res.ErrorMessage = apperr.Message(err)
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			res.Shortfalls = appErr.Shortfalls
		}
	}

	c.JSON(StatusFor(kind), res)
}

// BadRequest escreve uma falha de validação do corpo da requisição
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Result{
		Success:      false,
		Kind:         apperr.KindValidation,
		ErrorMessage: err.Error(),
	})
}

// ParamID lê um id numérico do path; escreve 400 e retorna false quando inválido
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Result{
			Success:      false,
			Kind:         apperr.KindValidation,
			ErrorMessage: "invalid " + name,
		})
		return 0, false
	}
	return id, true
}
