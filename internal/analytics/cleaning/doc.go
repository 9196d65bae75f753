// Package cleaning turns a raw daily observation sequence into the normalized
// series the SARIMA engine trains on.
//
// The stages run in a fixed order: IQR outlier replacement, weekly seasonal
// adjustment, causal smoothing, missing-value fill and z-score normalization.
// Every stage only reads positions at or before the one it writes, except the
// outlier bounds and seasonal factors, which are computed once up front (the
// seasonal factors from the leading 80% of the series only).
package cleaning
