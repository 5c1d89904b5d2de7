/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	"fmt"
	"net/http"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const HivePrefix = "Hive."

/*
   5-digit Error Code Convention: [xx][yyy]
   [xx] Business ID (00–99), used to distinguish errors from different business interfaces.
   00: General errors
   01: Job-related errors
   02: Agent-related errors
   03: Upload-related errors
   04: Agent-config-related errors
   [yyy] Error code range (000–999)
*/

// public: 00xxx
const (
	InternalError         = HivePrefix + "00001"
	BadRequest            = HivePrefix + "00002"
	Forbidden             = HivePrefix + "00003"
	AlreadyExist          = HivePrefix + "00004"
	NotFound              = HivePrefix + "00005"
	RequestEntityTooLarge = HivePrefix + "00006"
	Unauthorized          = HivePrefix + "00007"
	StateConflict         = HivePrefix + "00008"
	TransientBackend      = HivePrefix + "00009"
	Unavailable           = HivePrefix + "00010"
)

// job: 01xxx
const (
	JobNotFound = HivePrefix + "01001"
)

// agent: 02xxx
const (
	AgentNotFound = HivePrefix + "02001"
)

// upload: 03xxx
const (
	UploadNotFound = HivePrefix + "03001"
)

// agent config: 04xxx
const (
	ConfigNotFound = HivePrefix + "04001"
)

// Entity kinds used by NewNotFound to pick a business error code.
const (
	KindJob    = "Job"
	KindAgent  = "Agent"
	KindUpload = "Upload"
	KindConfig = "AgentConfig"
)

// IsHive returns true if the specified error carries a Hive error reason.
func IsHive(err error) bool {
	if err == nil {
		return false
	}
	return strings.HasPrefix(string(apierrors.ReasonForError(err)), HivePrefix)
}

func IsAlreadyExist(err error) bool {
	return apierrors.ReasonForError(err) == AlreadyExist
}

func IsBadRequest(err error) bool {
	return apierrors.ReasonForError(err) == BadRequest
}

func IsInternal(err error) bool {
	return apierrors.ReasonForError(err) == InternalError
}

func IsStateConflict(err error) bool {
	return apierrors.ReasonForError(err) == StateConflict
}

func IsTransientBackend(err error) bool {
	return apierrors.ReasonForError(err) == TransientBackend
}

func IsUnavailable(err error) bool {
	return apierrors.ReasonForError(err) == Unavailable
}

func IsUnauthorized(err error) bool {
	return apierrors.ReasonForError(err) == Unauthorized
}

func IsRequestEntityTooLarge(err error) bool {
	return apierrors.ReasonForError(err) == RequestEntityTooLarge
}

func IsNotFound(err error) bool {
	reason := apierrors.ReasonForError(err)
	if reason == NotFound || reason == JobNotFound || reason == AgentNotFound ||
		reason == UploadNotFound || reason == ConfigNotFound {
		return true
	}
	return false
}

func IgnoreFound(err error) error {
	if err == nil || IsNotFound(err) {
		return nil
	}
	return err
}

func GetErrorCode(err error) string {
	if err == nil || !IsHive(err) {
		return ""
	}
	return string(apierrors.ReasonForError(err))
}

func NewBadRequest(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusBadRequest,
		Reason:  BadRequest,
		Message: fmt.Sprintf("Bad request. %s", message),
	}}
}

func NewInternalError(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusInternalServerError,
		Reason:  InternalError,
		Message: fmt.Sprintf("Internal error. %s", message),
	}}
}

func NewAlreadyExist(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusConflict,
		Reason:  AlreadyExist,
		Message: message,
	}}
}

func NewForbidden(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusForbidden,
		Reason:  Forbidden,
		Message: message,
	}}
}

// NewStateConflict reports a transition that is not permitted from the
// entity's current state, or an optimistic-lock conflict.
func NewStateConflict(kind, name, message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status: metav1.StatusFailure,
		Code:   http.StatusConflict,
		Reason: StateConflict,
		Details: &metav1.StatusDetails{
			Kind: kind,
			Name: name,
		},
		Message: fmt.Sprintf("%s %s: %s", kind, name, message),
	}}
}

// NewTransientBackend marks a temporary store failure. Callers inside the
// persistence gateway retry these; unrecovered ones surface as 503.
func NewTransientBackend(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusServiceUnavailable,
		Reason:  TransientBackend,
		Message: fmt.Sprintf("Transient backend failure. %s", message),
	}}
}

func NewUnavailable(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusServiceUnavailable,
		Reason:  Unavailable,
		Message: fmt.Sprintf("Service unavailable. %s", message),
	}}
}

func NotFoundErrorCode(kind string) metav1.StatusReason {
	switch kind {
	case KindJob:
		return JobNotFound
	case KindAgent:
		return AgentNotFound
	case KindUpload:
		return UploadNotFound
	case KindConfig:
		return ConfigNotFound
	default:
		return NotFound
	}
}

func NewNotFound(kind, name string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status: metav1.StatusFailure,
		Code:   http.StatusNotFound,
		Reason: NotFoundErrorCode(kind),
		Details: &metav1.StatusDetails{
			Kind: kind,
			Name: name,
		},
		Message: fmt.Sprintf("%s %s not found.", kind, name),
	}}
}

func NewNotFoundWithMessage(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusNotFound,
		Reason:  NotFound,
		Message: message,
	}}
}

func NewRequestEntityTooLargeError(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusRequestEntityTooLarge,
		Reason:  RequestEntityTooLarge,
		Message: fmt.Sprintf("Request entity is too large: %s", message),
	}}
}

func NewUnauthorized(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusUnauthorized,
		Reason:  Unauthorized,
		Message: message,
	}}
}
