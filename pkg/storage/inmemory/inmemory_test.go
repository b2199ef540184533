package inmemory_test

import (
	"context"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/larder/pkg/storage"
	"github.com/papercomputeco/larder/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/larder/pkg/utils/test"
)

var _ = Describe("Driver", func() {
	testutils.DescribeDriver(func() storage.Driver {
		return inmemory.NewDriver()
	})

	It("handles concurrent adds", func() {
		ctx := context.Background()
		driver := inmemory.NewDriver()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := driver.Add(ctx, storage.NewIngredient(fmt.Sprintf("item-%d", i), "", 0, ""))
				Expect(err).NotTo(HaveOccurred())
			}(i)
		}
		wg.Wait()

		list, err := driver.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(50))

		seen := make(map[int64]bool)
		for _, ing := range list {
			Expect(seen[ing.ID]).To(BeFalse())
			seen[ing.ID] = true
		}
	})
})
