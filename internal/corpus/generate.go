package corpus

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Generator produces synthetic short ham and spam messages.
type Generator struct {
	rand *rand.Rand

	spamSubjects []string
	hamSubjects  []string
	spamBodies   []string
	hamBodies    []string
	spamDomains  []string
	names        []string
	companies    []string
}

// NewGenerator returns a generator whose output depends only on seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rand: rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d)),

		spamSubjects: []string{
			"URGENT!!! FREE MONEY!!!",
			"You have won $1,000,000!!!",
			"ACT NOW - Limited time offer!",
			"Get rich quick - GUARANTEED!",
			"CONGRATULATIONS - You're our winner!",
			"Click here for FREE gift cards",
			"Urgent: Your account will be closed",
			"Amazing investment opportunity",
			"Lose 20 pounds in 10 days!",
			"Work from home - Make $5000/week",
		},
		hamSubjects: []string{
			"Meeting tomorrow at 2 PM",
			"Quarterly report attached",
			"Project update - Phase 2 complete",
			"Weekend plans?",
			"Conference call notes",
			"Invoice for last month",
			"Welcome to the team",
			"Re: Budget approval",
			"Lunch invitation",
			"Notes from the review",
		},
		spamBodies: []string{
			"You have been selected to receive FREE MONEY! No risk involved, guaranteed income. Click here: %s",
			"Your account will be suspended unless you verify your details immediately at %s",
			"Make money fast with our proven system, thousands earn $10,000 per week. Join now: %s",
			"You won our lottery! Claim your cash prize now by sending your bank details to %s",
			"Miracle pill, no diet needed! Best prices guaranteed, free shipping. Order at %s",
			"Exclusive deal for winners only, limited time. Act now at %s",
		},
		hamBodies: []string{
			"Hi %s, a reminder about our meeting tomorrow in the conference room to go over the quarterly numbers.",
			"Hello %s, please find the report attached for your review. Let me know if you have questions.",
			"Hi %s, phase two is done and we are on track for the deadline. Next step is the team review.",
			"Dear %s, we are planning a team lunch on Friday. Let me know if you can make it.",
			"Thanks %s, I updated the budget proposal with your comments and shared it with the team.",
			"Hi %s, can we move the call to Thursday afternoon? The schedule is tight this week.",
		},
		spamDomains: []string{
			"get-rich-quick.com", "free-money.net", "lottery-prize.org", "best-deals.biz",
			"secure-verify.net", "miracle-pills.com", "winner-claims.org",
		},
		names: []string{
			"John", "Jane", "Mike", "Sarah", "David", "Lisa", "Robert", "Emily",
			"Michael", "Jennifer", "Amanda", "Daniel",
		},
		companies: []string{
			"Tech Solutions", "Global Dynamics", "Innovation Labs", "Future Systems",
			"Digital Ventures", "Cloud Services",
		},
	}
}

// Spam returns one spam message.
func (g *Generator) Spam() string {
	subject := g.choice(g.spamSubjects)
	if g.rand.Float64() < 0.5 {
		subject = strings.ToUpper(subject)
	}
	link := fmt.Sprintf("http://%s/%s", g.choice(g.spamDomains), g.choice([]string{"claim", "offer", "verify", "win"}))
	return subject + " " + fmt.Sprintf(g.choice(g.spamBodies), link)
}

// Ham returns one ham message.
func (g *Generator) Ham() string {
	subject := g.choice(g.hamSubjects)
	body := fmt.Sprintf(g.choice(g.hamBodies), g.choice(g.names))
	return fmt.Sprintf("%s %s Regards, %s at %s", subject, body, g.choice(g.names), g.choice(g.companies))
}

func (g *Generator) choice(items []string) string {
	return items[g.rand.IntN(len(items))]
}

// Generate returns nHam ham and nSpam spam messages in shuffled order.
func Generate(nHam, nSpam int, seed uint64) []Document {
	g := NewGenerator(seed)
	docs := make([]Document, 0, nHam+nSpam)
	for range nHam {
		docs = append(docs, Document{Text: g.Ham(), Label: Ham})
	}
	for range nSpam {
		docs = append(docs, Document{Text: g.Spam(), Label: Spam})
	}
	g.rand.Shuffle(len(docs), func(i, j int) { docs[i], docs[j] = docs[j], docs[i] })
	return docs
}
