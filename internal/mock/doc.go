// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package mock contains gomock implementations of the display contracts.
// Generated code lives in subdirectories named after the mocked package,
// the package name follows the mock_* pattern.
package mock

//go:generate mockgen -destination=xshm/display.go -package=mock_xshm github.com/nxgtw/go-xshm Display
