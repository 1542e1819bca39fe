package generator

import (
	"github.com/brianvoe/gofakeit/v7"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

// NameGenerator produces a display name consistent with sex
type NameGenerator interface {
	Name(sex model.Sex) string
}

var femaleFirstNames = []string{
	"Olivia", "Amelia", "Isla", "Ava", "Ivy", "Freya", "Lily", "Florence", "Mia", "Willow",
	"Rosie", "Sophia", "Isabella", "Grace", "Daisy", "Sienna", "Poppy", "Elsie", "Emily", "Ella",
	"Evelyn", "Phoebe", "Sofia", "Evie", "Charlotte", "Harper", "Matilda", "Ruby", "Alice", "Margaret",
	"Susan", "Patricia", "Janet", "Helen", "Sarah", "Fatima", "Aisha", "Priya", "Maryam", "Zara",
}

var maleFirstNames = []string{
	"Noah", "Oliver", "George", "Arthur", "Muhammad", "Leo", "Harry", "Oscar", "Archie", "Henry",
	"Theodore", "Freddie", "Jack", "Charlie", "Theo", "Alfie", "Jacob", "Thomas", "Finley", "Arlo",
	"William", "Lucas", "Roman", "Tommy", "Isaac", "Teddy", "Edward", "James", "Joshua", "Albert",
	"David", "John", "Michael", "Peter", "Robert", "Ahmed", "Ibrahim", "Arjun", "Yusuf", "Omar",
}

// FakerNames draws sex-specific given names and faker surnames from a seeded faker
type FakerNames struct {
	faker *gofakeit.Faker
}

// NewFakerNames returns a deterministic name generator for seed
func NewFakerNames(seed uint64) *FakerNames {
	// gofakeit treats seed 0 as "random", so shift it onto the names stream
	s := seed*streamMix + uint64(streamNames)
	if s == 0 {
		s = 1
	}
	return &FakerNames{faker: gofakeit.New(s)}
}

func (n *FakerNames) Name(sex model.Sex) string {
	first := maleFirstNames
	if sex == model.SexFemale {
		first = femaleFirstNames
	}
	return n.faker.RandomString(first) + " " + n.faker.LastName()
}
