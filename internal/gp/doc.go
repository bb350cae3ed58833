// Package gp provides the core types shared by the sensitivity engine.
//
// The package defines the narrow contract between a fitted GP emulator and
// the analysis code that consumes it:
//
//   - [Dims]: scalar counts (p inputs, q calibration parameters, pu basis
//     components, m simulation runs)
//   - [Samples]: posterior draws of betaU, lamUz and lamWs
//   - [Model]: interface a fitted emulator exposes to the analysis
//   - [Static]: in-memory [Model] that round-trips through YAML bundles
//
// # Example
//
//	m, _ := gp.LoadBundle("model.yaml")
//	res, _ := sens.Sensitivity(ctx, m, sens.WithGrid(21))
//
// # Thread Safety
//
// [Static] is read-only once constructed and may be shared between
// goroutines. [ForEach] runs independent tasks on a bounded worker pool.
package gp
