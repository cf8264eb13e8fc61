// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package upload stores candidate photos and registration documents.
//
// Objects live under "<prefix>/<uuid><ext>" below a root directory. Only
// JPEG, PNG, WebP and PDF content is accepted, and every upload is capped
// at the configured size limit.
package upload
