package generator

import "time"

// Config controls the size and shape of a synthetic campus dataset.
type Config struct {
	NumUsers        int
	AvgConnections  int
	NumGroups       int
	CapacityMin     int
	CapacityMax     int
	FemaleOnlyProb  float64
	ShuffleStopProb float64
	HorizonDays     int
	Seed            int64
	// Now anchors departure dates; zero means time.Now().
	Now time.Time
}

// DefaultConfig mirrors the demo dataset: 80 students, 25 groups, seed 42.
func DefaultConfig() Config {
	return Config{
		NumUsers:        80,
		AvgConnections:  4,
		NumGroups:       25,
		CapacityMin:     3,
		CapacityMax:     6,
		FemaleOnlyProb:  0.10,
		ShuffleStopProb: 0.20,
		HorizonDays:     30,
		Seed:            42,
	}
}

// Routes are the regional corridors groups are drawn from: start, stops..., dest.
var Routes = [][]string{
	{"Thapar Patiala", "Ambala", "Panipat", "Delhi"},
	{"Thapar Patiala", "Ambala", "Karnal", "Gurgaon"},
	{"Thapar Patiala", "Rajpura", "Ambala", "Yamunanagar"},
	{"Thapar Patiala", "Khanna", "Ludhiana", "Jalandhar", "Amritsar"},
	{"Thapar Patiala", "Barnala", "Bathinda"},
	{"Thapar Patiala", "Rajpura", "Chandigarh"},
	{"Thapar Patiala", "Chandigarh", "Sonipat", "Noida"},
	{"Thapar Patiala", "Ambala", "Panipat", "Faridabad"},
}

var (
	firstNamesM = []string{"Arjun", "Rohit", "Karan", "Siddharth", "Rahul", "Vikram", "Abhishek", "Aman", "Manish", "Harsh", "Rajat", "Pranav", "Gaurav"}
	firstNamesF = []string{"Ananya", "Muskan", "Riya", "Ishita", "Kavya", "Simran", "Neha", "Sanya", "Priya", "Mitali", "Pooja", "Tanvi", "Mehak"}
	lastNames   = []string{"Sharma", "Verma", "Singh", "Bansal", "Gupta", "Kaur", "Malhotra", "Aggarwal", "Chawla", "Mehta", "Jain"}

	farBound    = map[string]bool{"Delhi": true, "Noida": true, "Gurgaon": true, "Faridabad": true}
	midBound    = map[string]bool{"Chandigarh": true, "Ludhiana": true, "Amritsar": true}
	minuteMarks = []int{0, 0, 15, 30, 45}
)

const baseFare = 150
