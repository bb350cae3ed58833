// Package distcov computes pairwise squared distances between point sets and
// the squared-exponential covariance matrices built from them.
//
// Covariances follow exp(-sum_k beta_k * d_k^2) / lamz, where categorical
// dimensions contribute a 0/1 mismatch indicator in place of d_k^2.
package distcov
