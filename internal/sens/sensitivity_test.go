package sens_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gpsens/internal/gp"
	"github.com/san-kum/gpsens/internal/sens"
)

const tol = 1e-9

var _ = Describe("Sensitivity", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with a single input", func() {
		It("attributes all variance to it", func() {
			res, err := sens.Sensitivity(ctx, linear1D(), sens.WithGrid(6))
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Active).To(Equal([]int{0}))
			Expect(res.SmePm[0]).To(BeNumerically("~", 1, tol))
			Expect(res.StePm[0]).To(BeNumerically("~", 1, tol))
			Expect(res.TotalVar[0]).To(BeNumerically(">", 0))

			mean, sd := res.MainEffect(0, 0)
			Expect(mean).To(HaveLen(6))
			Expect(sd).To(HaveLen(6))
			for g := 1; g < len(mean); g++ {
				Expect(mean[g]).To(BeNumerically(">", mean[g-1]))
			}
		})
	})

	Context("with two inputs", func() {
		It("splits total effects into main and interaction parts", func() {
			res, err := sens.Sensitivity(ctx, additive2D(3),
				sens.WithMode(sens.AllSamples),
				sens.WithAllPairs(),
				sens.WithJointSets([][]int{{0, 1}}),
				sens.WithGrid(5),
			)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Draws).To(Equal(3))
			Expect(res.Pairs).To(Equal([][2]int{{0, 1}}))
			for d := 0; d < res.Draws; d++ {
				Expect(res.Ste[d][0]).To(BeNumerically("~", res.Sme[d][0]+res.Sie[d][0], tol))
				Expect(res.Ste[d][1]).To(BeNumerically("~", res.Sme[d][1]+res.Sie[d][0], tol))
				Expect(res.Sje[d][0]).To(BeNumerically("~", 1, tol))
				Expect(res.TotalVar[d]).To(BeNumerically(">", 0))
			}
			sum := 0.0
			for k, s := range res.SmePm {
				Expect(s).To(BeNumerically(">", 0))
				Expect(s).To(BeNumerically("<=", res.StePm[k]+0.05))
				sum += s
			}
			Expect(sum).To(BeNumerically("<=", 1+0.05))

			Expect(res.JefM).To(HaveLen(1))
			Expect(res.TjefM[0]).To(HaveLen(5))
			Expect(res.TjefM[0][0]).To(HaveLen(5))
			mean, sd := res.JointEffect(0, 0)
			Expect(mean).To(HaveLen(5))
			Expect(sd[4]).To(HaveLen(5))
		})
	})

	Context("with three inputs", func() {
		It("agrees with joint indices of single inputs and complements", func() {
			res, err := sens.Sensitivity(ctx, product3D(2),
				sens.WithMode(sens.AllSamples),
				sens.WithJointSets([][]int{{0}, {1}, {2}, {1, 2}, {0, 2}, {0, 1}, {0, 1, 2}}),
				sens.WithGrid(4),
			)
			Expect(err).NotTo(HaveOccurred())

			for d := 0; d < res.Draws; d++ {
				for k := 0; k < 3; k++ {
					Expect(res.Sje[d][k]).To(BeNumerically("~", res.Sme[d][k], tol))
					Expect(res.Ste[d][k]).To(BeNumerically("~", 1-res.Sje[d][3+k], tol))
				}
				Expect(res.Sje[d][6]).To(BeNumerically("~", 1, tol))
			}
		})

		It("drops inputs with a fixed range", func() {
			full := product3D(1)
			res, err := sens.Sensitivity(ctx, full,
				sens.WithRanges([][2]float64{{0, 1}, {0, 1}, {0.5, 0.5}}),
				sens.WithGrid(4),
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Active).To(Equal([]int{0, 1}))

			reduced := product3D(1)
			reduced.Num.P = 2
			for i, row := range reduced.ZT {
				reduced.ZT[i] = row[:2]
			}
			for d, b := range reduced.Posterior.BetaU {
				reduced.Posterior.BetaU[d] = b[:2]
			}
			want, err := sens.Sensitivity(ctx, reduced, sens.WithGrid(4))
			Expect(err).NotTo(HaveOccurred())

			for k := 0; k < 2; k++ {
				Expect(res.SmePm[k]).To(BeNumerically("~", want.SmePm[k], 1e-12))
				Expect(res.StePm[k]).To(BeNumerically("~", want.StePm[k], 1e-12))
				for g := range res.TmefM[k][0] {
					Expect(res.TmefM[k][0][g]).To(BeNumerically("~", want.TmefM[k][0][g], 1e-12))
				}
			}
		})
	})

	Context("with a basis", func() {
		It("rescales effects onto every output", func() {
			m := twoOutputs()
			res, err := sens.Sensitivity(ctx, m,
				sens.WithMode(sens.AllSamples),
				sens.WithPairs([][2]int{{0, 1}}),
				sens.WithGrid(3),
			)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Outputs).To(Equal(3))
			Expect(res.TotalMean).To(HaveLen(3))
			Expect(res.MefM).To(HaveLen(2))
			Expect(res.TmefM).To(HaveLen(2))
			Expect(res.TmefM[0]).To(HaveLen(3))
			Expect(res.JefM[0][0]).To(HaveLen(3 * 3))

			// component 0 does not load on output 2
			for k := 0; k < 2; k++ {
				for g := 0; g < 3; g++ {
					Expect(res.MefM[0][k][2][g]).To(Equal(3.0))
					Expect(res.MefSD[0][k][2][g]).To(Equal(0.0))
					sum := res.MefM[0][k][1][g] + res.MefM[1][k][1][g] - 2
					Expect(res.TmefM[k][1][g]).To(BeNumerically("~", sum, tol))
				}
			}
			for d := 0; d < res.Draws; d++ {
				Expect(res.TotalVar[d]).To(BeNumerically(">", 0))
			}
		})
	})

	Context("with posterior modes", func() {
		It("matches a fixed parameter set at the posterior mean", func() {
			m := additive2D(4)
			got, err := sens.Sensitivity(ctx, m, sens.WithMode(sens.Mean), sens.WithGrid(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Draws).To(Equal(1))

			want, err := sens.Sensitivity(ctx, m, sens.WithMode(sens.Fixed(m.Posterior.Mean())), sens.WithGrid(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(got.SmePm).To(Equal(want.SmePm))
			Expect(got.TmefSD).To(Equal(want.TmefSD))
			Expect(want.Mode).To(Equal("fixed"))
		})

		It("uses override samples in place of the model's own", func() {
			m := additive2D(1)
			other := additive2D(3).Posterior
			res, err := sens.Sensitivity(ctx, m, sens.WithSamples(other), sens.WithMode(sens.AllSamples), sens.WithGrid(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Draws).To(Equal(3))
		})
	})

	Context("with parallel workers", func() {
		It("gives identical results for any worker count", func() {
			m := twoOutputs()
			opts := []sens.Option{sens.WithMode(sens.AllSamples), sens.WithAllPairs(), sens.WithGrid(4)}

			serial, err := sens.Sensitivity(ctx, m, append(opts, sens.WithWorkers(1))...)
			Expect(err).NotTo(HaveOccurred())
			parallel, err := sens.Sensitivity(ctx, m, append(opts, sens.WithWorkers(4))...)
			Expect(err).NotTo(HaveOccurred())
			again, err := sens.Sensitivity(ctx, m, append(opts, sens.WithWorkers(4))...)
			Expect(err).NotTo(HaveOccurred())

			Expect(parallel).To(Equal(serial))
			Expect(again).To(Equal(parallel))
		})
	})

	Context("with invalid requests", func() {
		It("rejects a domain with no free inputs", func() {
			_, err := sens.Sensitivity(ctx, additive2D(1), sens.WithRanges([][2]float64{{0.2, 0.2}, {1, 1}}))
			Expect(err).To(MatchError(gp.ErrEmptyDomain))
		})

		It("rejects malformed options", func() {
			_, err := sens.Sensitivity(ctx, additive2D(1), sens.WithGrid(0))
			Expect(errors.Is(err, gp.ErrInvalidOption)).To(BeTrue())

			_, err = sens.Sensitivity(ctx, additive2D(1), sens.WithPairs([][2]int{{1, 1}}))
			Expect(errors.Is(err, gp.ErrInvalidOption)).To(BeTrue())

			_, err = sens.Sensitivity(ctx, additive2D(1), sens.WithJointSets([][]int{{0, 0}}))
			Expect(errors.Is(err, gp.ErrInvalidOption)).To(BeTrue())

			_, err = sens.Sensitivity(ctx, additive2D(1), sens.WithMode(nil))
			Expect(errors.Is(err, gp.ErrInvalidOption)).To(BeTrue())
		})

		It("rejects inconsistent shapes", func() {
			_, err := sens.Sensitivity(ctx, additive2D(1), sens.WithRanges([][2]float64{{0, 1}}))
			Expect(errors.Is(err, gp.ErrDimensionMismatch)).To(BeTrue())

			m := additive2D(1)
			m.Posterior.BetaU[0] = m.Posterior.BetaU[0][:1]
			_, err = sens.Sensitivity(ctx, m)
			Expect(errors.Is(err, gp.ErrDimensionMismatch)).To(BeTrue())

			m = additive2D(1)
			m.Num.PU = 2
			m.W = append(m.W, m.W...)
			_, err = sens.Sensitivity(ctx, m)
			Expect(errors.Is(err, gp.ErrDimensionMismatch)).To(BeTrue())
		})

		It("reports the component and draw of a failed factorization", func() {
			m := additive2D(2)
			m.Posterior.LamUz[1][0] = -1
			_, err := sens.Sensitivity(ctx, m, sens.WithMode(sens.AllSamples), sens.WithWorkers(1))
			Expect(errors.Is(err, gp.ErrNumericalInstability)).To(BeTrue())

			var ce *gp.ComponentError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.Component).To(Equal(0))
			Expect(ce.Draw).To(Equal(1))
		})

		It("stops when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := sens.Sensitivity(cctx, additive2D(3), sens.WithMode(sens.AllSamples))
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
