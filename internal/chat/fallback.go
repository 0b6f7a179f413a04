package chat

import (
	"strings"
)

// topic pairs a predicate with a canned responder. Topics are evaluated in
// order and the first match wins, so more specific topics come first.
type topic struct {
	match  func(q string) bool
	answer string
}

func keywords(words ...string) func(string) bool {
	return func(q string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}
}

var fallbackTopics = []topic{
	{
		match: keywords("fee", "split", "revenue", "earn", "launchdeck", "platform"),
		answer: "Launchdeck is a token-launch dashboard. When you deploy a token " +
			"through it, trading fees from the token's pool are split 90/10: 90% " +
			"goes to the creator wallet you supply and 10% to the platform wallet.\n\n" +
			"The split is fixed at deployment time and enforced by the deployment " +
			"contract, not by this server. Your creator share accrues to the wallet " +
			"you named in the deploy request, so double-check that address before " +
			"launching.",
	},
	{
		match: keywords("deploy", "launch", "create a token", "create token", "mint"),
		answer: "To launch a token from chat, send a message like:\n\n" +
			"Deploy token Name: MyToken Symbol: MTK Wallet: 0x<your 40-hex address>\n\n" +
			"Name and symbol are required; the wallet receives admin rights and the " +
			"90% creator fee share. You can also add Website:, Twitter:, " +
			"Description: and Image: fields. Deployment is submitted to the chain " +
			"immediately and you get back a transaction hash without waiting for " +
			"confirmation.",
	},
	{
		match: keywords("base", "ethereum", "chain", "network", "l2", "layer 2", "arbitrum", "optimism"),
		answer: "Tokens here launch on Base, an Ethereum layer-2 built on the OP " +
			"Stack. Base inherits Ethereum's security while keeping transaction " +
			"fees to fractions of a cent, which is why most retail token launches " +
			"happen there.\n\n" +
			"Ethereum mainnet remains the settlement layer: Base batches its " +
			"transactions and posts them to Ethereum. Other popular L2s (Arbitrum, " +
			"Optimism) work along similar lines but are not supported by this " +
			"dashboard.",
	},
	{
		match: keywords("defi", "decentralized finance", "liquidity", "amm", "swap", "yield"),
		answer: "DeFi (decentralized finance) is the set of financial services " +
			"built from smart contracts instead of intermediaries: trading, " +
			"lending, and yield products that anyone with a wallet can use.\n\n" +
			"The piece most relevant to token launches is the AMM (automated " +
			"market maker): a liquidity pool holds both your token and a base " +
			"asset, and a pricing formula executes swaps against it. Trading fees " +
			"collected by the pool are what the 90/10 creator/platform split " +
			"applies to.",
	},
	{
		match: keywords("secur", "scam", "rug", "seed phrase", "private key", "phish", "safe"),
		answer: "Security basics: never share your seed phrase or private key with " +
			"anyone, including tools that claim to need it for \"verification\". " +
			"This dashboard never asks for your keys; deployment signing happens " +
			"in your own wallet or a server-side key you control.\n\n" +
			"Before interacting with a token, check its contract address against " +
			"the official source, be wary of tokens whose liquidity is not locked, " +
			"and treat unsolicited airdrops as hostile until proven otherwise.",
	},
	{
		match: keywords("price", "market cap", "volume", "chart", "pump"),
		answer: "Market data on the dashboard (price, market cap, 24h change and " +
			"volume) comes from the token registry's indexer and refreshes on each " +
			"page load. Freshly launched tokens can show zeros until the indexer " +
			"picks up the first trades.\n\n" +
			"Market cap here is fully-diluted: current price multiplied by total " +
			"supply. Thin early liquidity means both price and cap can move " +
			"violently on small trades.",
	},
	{
		match: keywords("gas", "transaction fee", "wei", "gwei"),
		answer: "Gas is the fee paid to execute a transaction on-chain, priced in " +
			"gwei (one billionth of an ETH). On Base a token deployment typically " +
			"costs well under a cent at normal load.\n\n" +
			"Gas for your deployment is paid by the signing wallet, not by this " +
			"server, so the deployer wallet needs a small ETH balance on Base.",
	},
}

const fallbackMenu = "I can help with:\n\n" +
	"- Launching a token (\"Deploy token Name: ... Symbol: ... Wallet: 0x...\")\n" +
	"- How the 90/10 creator/platform fee split works\n" +
	"- Base, Ethereum and layer-2 basics\n" +
	"- DeFi concepts like liquidity pools and AMMs\n" +
	"- Wallet security hygiene\n" +
	"- Reading the market data on the dashboard\n\n" +
	"Ask about any of these, or just describe the token you want to launch."

// FallbackAnswer picks a canned answer for question by ordered keyword
// matching. Deterministic and total; the generic menu covers everything
// unmatched. A non-empty tag prepends a notice that the live assistant was
// unavailable.
func FallbackAnswer(question, tag string) string {
	q := strings.ToLower(question)

	answer := fallbackMenu
	for _, t := range fallbackTopics {
		if t.match(q) {
			answer = t.answer
			break
		}
	}

	if tag != "" {
		return "Live answers are unavailable right now (" + tag + "), so here is " +
			"what I can tell you offline.\n\n" + answer
	}
	return answer
}
