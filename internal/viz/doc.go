// Package viz renders sensitivity results in the terminal.
//
//   - [IndexTable]: posterior-mean main, total, interaction and joint indices
//     with bars and an inline sparkline of each main effect
//   - [MainEffectPlot]: an asciigraph chart of one main-effect curve with its
//     two standard deviation band
package viz
