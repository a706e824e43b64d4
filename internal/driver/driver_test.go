package driver_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/adkg/internal/driver"
)

// Full ADKG happy-path run: n=4, t=1, every party honest. Mirrors spec.md
// §8 scenario S1: every party outputs (mks, sk_i, pk) with |mks| = n-t and
// an identical pk across every honest party.
var _ = Describe("a full ADKG run with every party honest", func() {
	It("produces a shared public key and a consistent master key set", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		n, t := 4, 1
		results := driver.Run(ctx, n, t)
		Expect(results).To(HaveLen(n))

		var pk []byte
		for _, r := range results {
			Expect(r.Err).NotTo(HaveOccurred())
			Expect(r.Output.MKS).To(HaveLen(n - t))

			pkBytes, err := r.Output.PublicKey.MarshalBinary()
			Expect(err).NotTo(HaveOccurred())
			if pk == nil {
				pk = pkBytes
			} else {
				Expect(pkBytes).To(Equal(pk))
			}

			shareBytes, err := r.Output.SecretShare.MarshalBinary()
			Expect(err).NotTo(HaveOccurred())
			Expect(shareBytes).To(HaveLen(32))
		}
	})
})
