package testutils

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/larder/pkg/storage"
)

// ErrMockStore is returned by every FailingDriver method.
var ErrMockStore = errors.New("mock store failure")

// FailingDriver is a storage.Driver whose every operation fails.
type FailingDriver struct{}

func (FailingDriver) List(context.Context) ([]storage.Ingredient, error) {
	return nil, ErrMockStore
}

func (FailingDriver) Add(context.Context, ...storage.Ingredient) ([]storage.Ingredient, error) {
	return nil, ErrMockStore
}

func (FailingDriver) Update(context.Context, int64, storage.IngredientUpdate) (storage.Ingredient, error) {
	return storage.Ingredient{}, ErrMockStore
}

func (FailingDriver) Delete(context.Context, int64) error { return ErrMockStore }

func (FailingDriver) DeleteAll(context.Context) (int64, error) { return 0, ErrMockStore }

func (FailingDriver) Search(context.Context, string) ([]storage.Ingredient, error) {
	return nil, ErrMockStore
}

func (FailingDriver) ByCategory(context.Context, string) ([]storage.Ingredient, error) {
	return nil, ErrMockStore
}

func (FailingDriver) Ping(context.Context) error { return ErrMockStore }

func (FailingDriver) Close() error { return nil }

// DescribeDriver registers the behavior every storage.Driver must share.
// newDriver is called before each test and the driver is closed after it.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	add := func(ingredients ...storage.Ingredient) []storage.Ingredient {
		added, err := driver.Add(ctx, ingredients...)
		Expect(err).NotTo(HaveOccurred())
		return added
	}

	Describe("Add", func() {
		It("assigns IDs and added dates", func() {
			added := add(
				storage.NewIngredient("Milk", "dairy", 2, "l"),
				storage.NewIngredient("eggs", "", 0, ""),
			)

			Expect(added).To(HaveLen(2))
			Expect(added[0].ID).NotTo(BeZero())
			Expect(added[1].ID).NotTo(Equal(added[0].ID))
			Expect(added[0].AddedDate.IsZero()).To(BeFalse())
			Expect(added[0].Name).To(Equal("milk"))
			Expect(added[1].Category).To(Equal(storage.DefaultCategory))
			Expect(added[1].Quantity).To(Equal(storage.DefaultQuantity))
			Expect(added[1].Unit).To(Equal(storage.DefaultUnit))
		})

		It("accepts an empty batch", func() {
			Expect(add()).To(BeEmpty())
		})
	})

	Describe("List", func() {
		It("returns an empty list for an empty store", func() {
			list, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})

		It("returns the newest ingredient first", func() {
			add(storage.NewIngredient("first", "", 0, ""))
			add(storage.NewIngredient("second", "", 0, ""))

			list, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(storage.Names(list)).To(Equal([]string{"second", "first"}))
		})
	})

	Describe("Update", func() {
		It("changes only the given fields", func() {
			added := add(storage.NewIngredient("rice", "grains", 1, "kg"))

			qty := 3.5
			updated, err := driver.Update(ctx, added[0].ID, storage.IngredientUpdate{Quantity: &qty})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Quantity).To(Equal(3.5))
			Expect(updated.Name).To(Equal("rice"))
			Expect(updated.Category).To(Equal("grains"))
			Expect(updated.Unit).To(Equal("kg"))
		})

		It("returns NotFoundError for a missing ID", func() {
			name := "x"
			_, err := driver.Update(ctx, 9999, storage.IngredientUpdate{Name: &name})

			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.ID).To(Equal(int64(9999)))
		})
	})

	Describe("Delete", func() {
		It("removes the ingredient", func() {
			added := add(storage.NewIngredient("salt", "", 0, ""))

			Expect(driver.Delete(ctx, added[0].ID)).To(Succeed())

			list, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})

		It("returns NotFoundError for a missing ID", func() {
			err := driver.Delete(ctx, 9999)
			Expect(errors.As(err, &storage.NotFoundError{})).To(BeTrue())
		})
	})

	Describe("DeleteAll", func() {
		It("returns how many ingredients were removed", func() {
			add(
				storage.NewIngredient("a", "", 0, ""),
				storage.NewIngredient("b", "", 0, ""),
				storage.NewIngredient("c", "", 0, ""),
			)

			n, err := driver.DeleteAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(3)))

			n, err = driver.DeleteAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})
	})

	Describe("Search", func() {
		It("matches a case-insensitive substring ordered by name", func() {
			add(
				storage.NewIngredient("tomato paste", "", 0, ""),
				storage.NewIngredient("cherry tomato", "", 0, ""),
				storage.NewIngredient("basil", "", 0, ""),
			)

			found, err := driver.Search(ctx, "TOMATO")
			Expect(err).NotTo(HaveOccurred())
			Expect(storage.Names(found)).To(Equal([]string{"cherry tomato", "tomato paste"}))
		})

		It("returns an empty list when nothing matches", func() {
			add(storage.NewIngredient("basil", "", 0, ""))

			found, err := driver.Search(ctx, "saffron")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())
		})
	})

	Describe("ByCategory", func() {
		It("returns the category ordered by name", func() {
			add(
				storage.NewIngredient("yogurt", "dairy", 0, ""),
				storage.NewIngredient("butter", "dairy", 0, ""),
				storage.NewIngredient("apple", "fruit", 0, ""),
			)

			found, err := driver.ByCategory(ctx, "dairy")
			Expect(err).NotTo(HaveOccurred())
			Expect(storage.Names(found)).To(Equal([]string{"butter", "yogurt"}))
		})
	})

	Describe("Ping", func() {
		It("succeeds on an open store", func() {
			Expect(driver.Ping(ctx)).To(Succeed())
		})
	})
}
